package app

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"trailbot/config"
	"trailbot/internal/domain"
	"trailbot/internal/pkg/symbol"
	"trailbot/internal/ports"
	"trailbot/internal/risk"
	"trailbot/internal/strategy/analytics"
	"trailbot/internal/strategy/indicators"
)

// Fault kinds reported to metrics.
const (
	faultFetch = "fetch"
	faultData  = "data"
	faultOrder = "order"
	faultStore = "store"
	faultPanic = "panic"
)

// RunStats summarizes one run of the loop.
type RunStats struct {
	Ticks          int
	Faults         int
	Entries        int
	Exits          int
	RealizedPNL    float64
	InitialBalance float64
}

// TradingService polls the gateway, evaluates the strategy and manages the
// single open position until its context is cancelled.
type TradingService struct {
	cfg      *config.Config
	logger   ports.Logger
	console  ports.LogSink
	gateway  ports.Gateway
	store    ports.PositionStore
	strategy ports.Strategy
	metrics  ports.Metrics
	tracker  *risk.Tracker
	settings indicators.Settings
	quote    string

	// Replaced in tests.
	sleep func(ctx context.Context, d time.Duration)
	now   func() time.Time

	stats  RunStats
	closed []*domain.Position // Positions closed during this run, for the summary only
}

// NewTradingService creates a new application service instance.
func NewTradingService(
	cfg *config.Config,
	logger ports.Logger,
	console ports.LogSink,
	gateway ports.Gateway,
	store ports.PositionStore,
	strat ports.Strategy,
	metrics ports.Metrics,
) (*TradingService, error) {

	// Validate dependencies
	if cfg == nil || logger == nil || console == nil || gateway == nil || store == nil || strat == nil || metrics == nil {
		return nil, fmt.Errorf("missing required dependencies for TradingService")
	}

	// Validate config values needed by service
	if cfg.USDAmount <= 0 {
		return nil, fmt.Errorf("configuration USDAmount must be positive")
	}
	if cfg.CandleLimit <= 0 {
		return nil, fmt.Errorf("configuration CandleLimit must be positive")
	}
	if cfg.PollInterval <= 0 || cfg.BackoffInterval <= 0 || cfg.RequestTimeout <= 0 {
		return nil, fmt.Errorf("configuration intervals must be positive")
	}
	sym := symbol.Parse(cfg.Symbol)
	if sym.Quote == "" {
		return nil, fmt.Errorf("configuration Symbol %q has no quote asset", cfg.Symbol)
	}

	tracker, err := risk.NewTracker(cfg.TrackerConfig())
	if err != nil {
		return nil, err
	}

	return &TradingService{
		cfg:      cfg,
		logger:   logger,
		console:  console,
		gateway:  gateway,
		store:    store,
		strategy: strat,
		metrics:  metrics,
		tracker:  tracker,
		settings: cfg.IndicatorSettings(),
		quote:    sym.Quote,
		sleep:    sleepContext,
		now:      func() time.Time { return time.Now().UTC() },
	}, nil
}

// Stats returns the counters of the current run.
func (s *TradingService) Stats() RunStats {
	return s.stats
}

// Session analyzes the positions closed during this run.
func (s *TradingService) Session() *analytics.SessionMetrics {
	return analytics.AnalyzeSession(s.closed, s.stats.InitialBalance)
}

// Position returns a copy of the open position, or nil when flat.
func (s *TradingService) Position() *domain.Position {
	return s.tracker.Position()
}

// Run executes the polling loop until ctx is cancelled. A cancelled context is
// a normal stop and returns nil; only startup failures are returned as errors.
func (s *TradingService) Run(ctx context.Context) error {
	s.logger.Info(ctx, "Starting Trading Service...", map[string]interface{}{
		"symbol":    s.cfg.Symbol,
		"timeframe": s.cfg.Timeframe,
		"mode":      s.cfg.Mode,
		"strategy":  s.strategy.Name(),
	})

	if err := s.startup(ctx); err != nil {
		return err
	}

	for {
		// The run flag is only checked here, so a tick in progress always completes.
		if ctx.Err() != nil {
			s.shutdown(ctx)
			return nil
		}

		wait := s.safeTick(context.WithoutCancel(ctx))
		s.sleep(ctx, wait)
	}
}

// startup prints the banner and recovers a position left open by a previous run.
func (s *TradingService) startup(ctx context.Context) error {
	balanceCtx, cancel := context.WithTimeout(ctx, s.cfg.RequestTimeout)
	balance, err := s.gateway.FetchFreeBalance(balanceCtx, s.quote)
	cancel()
	balanceText := fmt.Sprintf("%.2f %s", balance, s.quote)
	if err != nil {
		s.logger.Warn(ctx, "Failed to fetch initial balance", map[string]interface{}{"asset": s.quote, "error": err.Error()})
		balanceText = "unavailable"
	}
	s.stats.InitialBalance = balance

	s.console.AppendLine("========== TRAILBOT STARTED ==========")
	s.console.AppendLine(fmt.Sprintf("Market: %s | Timeframe: %s | Mode: %s | Strategy: %s",
		s.cfg.Symbol, s.cfg.Timeframe, s.cfg.Mode, s.strategy.Name()))
	s.console.AppendLine(fmt.Sprintf("Free balance: %s | Investment per trade: %.2f %s",
		balanceText, s.cfg.USDAmount, s.quote))
	thresholds := s.tracker.Config()
	s.console.AppendLine(fmt.Sprintf("Stop gap (SL / trailing): %.2f%% | TP activation: %.2f%%",
		thresholds.StopLossPct, thresholds.TakeProfitPct))

	s.logger.Info(ctx, "Synchronizing initial state...")
	openPos, err := s.store.FindOpenBySymbol(ctx, s.cfg.Symbol)
	if err != nil {
		s.logger.Error(ctx, err, "Failed to check for existing open position")
		return fmt.Errorf("failed to query open position: %w", err)
	}
	if openPos == nil {
		s.logger.Info(ctx, "No existing open position found")
		s.metrics.PositionOpen(false)
		return nil
	}

	if err := s.tracker.Restore(openPos); err != nil {
		s.logger.Error(ctx, err, "Stored position could not be restored", map[string]interface{}{"positionID": openPos.ID})
		return fmt.Errorf("failed to restore open position: %w", err)
	}
	s.metrics.PositionOpen(true)
	s.logger.Info(ctx, "Found existing open position", map[string]interface{}{
		"positionID": openPos.ID,
		"entryPrice": openPos.EntryPrice,
		"peakPrice":  openPos.PeakPrice,
		"quantity":   openPos.Quantity,
		"trailing":   openPos.TrailingActivated,
	})
	s.console.AppendLine(fmt.Sprintf("Recovered open position: %s qty %s entry %.4f peak %.4f%s",
		openPos.Symbol, formatQuantity(openPos.Quantity), openPos.EntryPrice, openPos.PeakPrice, trailingSuffix(openPos.TrailingActivated)))
	return nil
}

// shutdown prints the summary of the run.
func (s *TradingService) shutdown(ctx context.Context) {
	s.logger.Info(ctx, "Trading Service stopped.", map[string]interface{}{
		"ticks":       s.stats.Ticks,
		"faults":      s.stats.Faults,
		"entries":     s.stats.Entries,
		"exits":       s.stats.Exits,
		"realizedPnl": s.stats.RealizedPNL,
	})

	s.console.AppendLine("========== BOT STOPPED BY USER ==========")
	s.console.AppendLine(fmt.Sprintf("Ticks: %d | Faults: %d | Entries: %d | Exits: %d",
		s.stats.Ticks, s.stats.Faults, s.stats.Entries, s.stats.Exits))
	s.console.AppendLine(fmt.Sprintf("Realized PnL: %+.4f %s", s.stats.RealizedPNL, s.quote))
	if session := s.Session(); session.TotalTrades > 0 {
		s.console.AppendLine(fmt.Sprintf("Trades: %d | Win rate: %.1f%% | Avg win %+.4f | Avg loss %+.4f | Avg hold %s",
			session.TotalTrades, session.WinRate*100, session.AverageWin, session.AverageLoss, session.AverageHoldTime.Round(time.Second)))
	}
	if pos := s.tracker.Position(); pos != nil {
		s.console.AppendLine(fmt.Sprintf("Position still open: qty %s entry %.4f peak %.4f (resumed on next start)",
			formatQuantity(pos.Quantity), pos.EntryPrice, pos.PeakPrice))
	}
}

// safeTick runs one tick and returns how long to wait before the next one.
func (s *TradingService) safeTick(ctx context.Context) (wait time.Duration) {
	s.stats.Ticks++
	defer s.metrics.TickCompleted()
	defer func() {
		if r := recover(); r != nil {
			s.fault(ctx, faultPanic, fmt.Errorf("%w: %v", ports.ErrTickPanic, r))
			wait = s.cfg.BackoffInterval
		}
	}()

	err := s.tick(ctx)
	if errors.Is(err, ports.ErrFetchFault) {
		return s.cfg.BackoffInterval
	}
	return s.cfg.PollInterval
}

// tick performs one fetch, evaluate, act cycle.
func (s *TradingService) tick(ctx context.Context) error {
	klines, err := s.fetchCandles(ctx)
	if err != nil {
		s.fault(ctx, faultFetch, err)
		return err
	}

	snaps := indicators.Compute(klines, s.settings)
	current, previous := indicators.Latest(snaps)
	if !current.Ready() {
		err := fmt.Errorf("%w: got %d candles, need %d", ports.ErrDataInsufficient, len(klines), s.strategy.RequiredDataPoints())
		s.fault(ctx, faultData, err)
		return err
	}

	price := current.Close
	s.metrics.Indicators(price, current.RSI)

	if s.tracker.IsOpen() {
		return s.manageOpen(ctx, current, previous, price)
	}
	return s.seekEntry(ctx, current, previous, price)
}

func (s *TradingService) fetchCandles(ctx context.Context) ([]*domain.Kline, error) {
	reqCtx, cancel := context.WithTimeout(ctx, s.cfg.RequestTimeout)
	defer cancel()

	klines, err := s.gateway.FetchCandles(reqCtx, s.cfg.Symbol, s.cfg.Timeframe, s.cfg.CandleLimit)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ports.ErrFetchFault, err)
	}
	return klines, nil
}

func (s *TradingService) seekEntry(ctx context.Context, current, previous *indicators.Snapshot, price float64) error {
	signal := s.strategy.Evaluate(current, previous, price)
	s.console.UpdateLastLine(fmt.Sprintf("%s | %s | FLAT | signal %s",
		s.now().Format("15:04:05"), s.marketText(current, price), signal))

	if signal != domain.SignalBuy {
		return nil
	}
	s.logger.Info(ctx, "Strategy indicates a trade should be entered", map[string]interface{}{
		"price": price,
		"rsi":   current.RSI,
		"ema":   current.EMAFast,
	})
	return s.enterPosition(ctx, price, current)
}

func (s *TradingService) enterPosition(ctx context.Context, price float64, current *indicators.Snapshot) error {
	op := "enterPosition"
	s.console.AppendLine(fmt.Sprintf("BUY signal: price %.4f RSI %.2f EMA%d %.4f",
		price, current.RSI, s.settings.FastEMASpan, current.EMAFast))

	orderCtx, cancel := context.WithTimeout(ctx, s.cfg.RequestTimeout)
	defer cancel()

	order, err := s.gateway.PlaceMarketOrder(orderCtx, ports.OrderRequest{
		Symbol:      s.cfg.Symbol,
		Side:        domain.Buy,
		QuoteAmount: s.cfg.USDAmount,
	})
	if err != nil {
		s.metrics.Order(string(domain.Buy), false)
		err = fmt.Errorf("%w: %s: %w", ports.ErrOrderFault, op, err)
		s.fault(ctx, faultOrder, err)
		return err
	}
	s.metrics.Order(string(domain.Buy), true)

	quantity := order.ExecutedQty
	if quantity <= 0 {
		quantity = order.OrigQuantity
	}
	s.logger.Info(ctx, op+": Entry order filled", map[string]interface{}{
		"orderID":  order.OrderID,
		"avgPrice": order.AvgPrice,
		"quantity": quantity,
	})

	pos, err := s.tracker.Open(s.cfg.Symbol, price, quantity, s.now())
	if err != nil {
		err = fmt.Errorf("%s: %w", op, err)
		s.fault(ctx, faultOrder, err)
		return err
	}
	s.stats.Entries++
	s.metrics.PositionOpen(true)
	s.persist(ctx, pos)

	s.console.AppendLine(fmt.Sprintf("ENTERED %s: qty %s at %.4f (order %d)",
		s.cfg.Symbol, formatQuantity(quantity), price, order.OrderID))
	return nil
}

func (s *TradingService) manageOpen(ctx context.Context, current, previous *indicators.Snapshot, price float64) error {
	ev, err := s.tracker.Update(price)
	if err != nil {
		s.fault(ctx, faultData, err)
		return err
	}

	if ev.Activated {
		s.console.AppendLine(fmt.Sprintf("TP REACHED: profit %+.2f%% at %.4f, trailing stop active (gap %.2f%%)",
			ev.ProfitPct, price, s.tracker.Config().StopLossPct))
	}
	if ev.PeakChanged || ev.Activated {
		s.persist(ctx, s.tracker.Position())
	}

	state := "WAITING TP"
	if ev.TrailingActivated {
		state = "TRAILING ACTIVE"
	}
	s.console.UpdateLastLine(fmt.Sprintf("%s | %s | IN POSITION entry %.4f peak %.4f | PnL %+.2f%% | DD %.2f%% | %s",
		s.now().Format("15:04:05"), s.marketText(current, price), ev.EntryPrice, ev.PeakPrice, ev.ProfitPct, ev.DrawdownPct, state))

	var reason domain.CloseReason
	if ev.ShouldExit {
		reason = ev.Reason
	} else if s.strategy.Evaluate(current, previous, price) == domain.SignalSell {
		reason = domain.CloseReasonSignal
	}
	if reason == "" {
		return nil
	}
	return s.exitPosition(ctx, price, reason, ev)
}

func (s *TradingService) exitPosition(ctx context.Context, price float64, reason domain.CloseReason, ev risk.Evaluation) error {
	op := "exitPosition"
	pos := s.tracker.Position()
	s.console.AppendLine(fmt.Sprintf("%s triggered at %.4f (peak %.4f, drawdown %.2f%%)",
		reason, price, ev.PeakPrice, ev.DrawdownPct))

	orderCtx, cancel := context.WithTimeout(ctx, s.cfg.RequestTimeout)
	defer cancel()

	order, err := s.gateway.PlaceMarketOrder(orderCtx, ports.OrderRequest{
		Symbol:   s.cfg.Symbol,
		Side:     domain.Sell,
		Quantity: pos.Quantity,
	})
	if err != nil {
		// The position stays open and is re-evaluated on the next tick.
		s.metrics.Order(string(domain.Sell), false)
		err = fmt.Errorf("%w: %s: %w", ports.ErrOrderFault, op, err)
		s.fault(ctx, faultOrder, err)
		return err
	}
	s.metrics.Order(string(domain.Sell), true)

	exitPrice := order.AvgPrice
	if exitPrice <= 0 {
		s.logger.Warn(ctx, op+": Exit order AvgPrice is 0, using candle price as fallback", map[string]interface{}{"orderID": order.OrderID, "fallbackPrice": price})
		exitPrice = price
	}

	closed, err := s.tracker.Close(exitPrice, reason, s.now())
	if err != nil {
		err = fmt.Errorf("%w: %s: sell filled but position not closed: %w", ports.ErrOrderFault, op, err)
		s.fault(ctx, faultOrder, err)
		return err
	}
	s.stats.Exits++
	s.closed = append(s.closed, closed)
	s.metrics.PositionOpen(false)

	if err := s.store.DeleteBySymbol(ctx, s.cfg.Symbol); err != nil {
		s.fault(ctx, faultStore, fmt.Errorf("%s: delete stored position: %w", op, err))
	}

	pnl := closed.PNL(exitPrice)
	s.stats.RealizedPNL += pnl
	s.logger.Info(ctx, op+": Position closed", map[string]interface{}{
		"reason":     reason,
		"entryPrice": closed.EntryPrice,
		"exitPrice":  exitPrice,
		"pnl":        pnl,
	})
	s.console.AppendLine(fmt.Sprintf("EXITED %s (%s): entry %.4f exit %.4f | PnL %+.4f %s (%+.2f%%)",
		s.cfg.Symbol, reason, closed.EntryPrice, exitPrice, pnl, s.quote, closed.ProfitPct(exitPrice)))
	return nil
}

// persist saves the open position. A store failure never changes the trading decision.
func (s *TradingService) persist(ctx context.Context, pos *domain.Position) {
	if pos == nil {
		return
	}
	if _, err := s.store.SaveOpen(ctx, pos); err != nil {
		s.fault(ctx, faultStore, fmt.Errorf("save open position: %w", err))
	}
}

// fault logs err once, appends it to the console and counts it.
func (s *TradingService) fault(ctx context.Context, kind string, err error) {
	s.stats.Faults++
	s.metrics.Fault(kind)
	s.logger.Error(ctx, err, "Tick fault", map[string]interface{}{"kind": kind})
	s.console.AppendLine(fmt.Sprintf("%s | ERROR (%s): %v", s.now().Format("15:04:05"), kind, err))
}

func (s *TradingService) marketText(current *indicators.Snapshot, price float64) string {
	return fmt.Sprintf("%s %.4f | RSI %.2f | EMA%d %.4f",
		s.cfg.Symbol, price, current.RSI, s.settings.FastEMASpan, current.EMAFast)
}

func trailingSuffix(active bool) string {
	if active {
		return " | TRAILING ACTIVE"
	}
	return ""
}

// formatQuantity prints a quantity without trailing zeros.
func formatQuantity(quantity float64) string {
	return strconv.FormatFloat(quantity, 'f', -1, 64)
}

// sleepContext waits for d or until ctx is done.
func sleepContext(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
