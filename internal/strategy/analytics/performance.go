package analytics

import (
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"

	"trailbot/internal/domain"
)

// SessionMetrics summarizes the positions closed during one run of the bot.
type SessionMetrics struct {
	TotalTrades   int
	WinningTrades int
	LosingTrades  int
	WinRate       float64 // 0..1
	TotalProfit   float64 // Quote asset
	AverageWin    float64
	AverageLoss   float64 // Negative or zero
	ProfitFactor  float64 // Gross profit / gross loss, 0 without losses
	FinalBalance  float64

	MaxDrawdown          float64 // Fraction of peak equity, 0 when the start balance is unknown
	MaxConsecutiveWins   int
	MaxConsecutiveLosses int
	AverageHoldTime      time.Duration
	ExitsByReason        map[domain.CloseReason]int
}

// AnalyzeSession computes SessionMetrics from closed positions, ordered by exit time.
// Positions that are still open are ignored.
func AnalyzeSession(closed []*domain.Position, initialBalance float64) *SessionMetrics {
	metrics := &SessionMetrics{
		FinalBalance:  initialBalance,
		ExitsByReason: make(map[domain.CloseReason]int),
	}

	trades := make([]*domain.Position, 0, len(closed))
	for _, p := range closed {
		if p != nil && p.Status == domain.StatusClosed {
			trades = append(trades, p)
		}
	}
	if len(trades) == 0 {
		return metrics
	}
	sort.SliceStable(trades, func(i, j int) bool {
		return trades[i].ExitTime.Before(trades[j].ExitTime)
	})

	var wins, losses []float64
	var grossProfit, grossLoss float64
	var consecutiveWins, consecutiveLosses int
	var holdTime time.Duration
	balance, peak := initialBalance, initialBalance

	for _, trade := range trades {
		pnl := trade.PNL(trade.ExitPrice)
		metrics.TotalTrades++
		metrics.ExitsByReason[trade.CloseReason]++
		holdTime += trade.ExitTime.Sub(trade.EntryTime)

		if pnl > 0 {
			wins = append(wins, pnl)
			grossProfit += pnl
			consecutiveWins++
			consecutiveLosses = 0
		} else {
			losses = append(losses, pnl)
			grossLoss -= pnl
			consecutiveLosses++
			consecutiveWins = 0
		}
		metrics.MaxConsecutiveWins = max(metrics.MaxConsecutiveWins, consecutiveWins)
		metrics.MaxConsecutiveLosses = max(metrics.MaxConsecutiveLosses, consecutiveLosses)

		balance += pnl
		metrics.TotalProfit += pnl
		if balance > peak {
			peak = balance
		} else if initialBalance > 0 {
			metrics.MaxDrawdown = max(metrics.MaxDrawdown, (peak-balance)/peak)
		}
	}

	metrics.WinningTrades = len(wins)
	metrics.LosingTrades = len(losses)
	metrics.WinRate = float64(len(wins)) / float64(metrics.TotalTrades)
	metrics.FinalBalance = balance
	metrics.AverageHoldTime = holdTime / time.Duration(metrics.TotalTrades)
	if len(wins) > 0 {
		metrics.AverageWin = stat.Mean(wins, nil)
	}
	if len(losses) > 0 {
		metrics.AverageLoss = stat.Mean(losses, nil)
	}
	if grossLoss > 0 {
		metrics.ProfitFactor = grossProfit / grossLoss
	}
	return metrics
}
