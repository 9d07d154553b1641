package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"strings"
	"time"

	"trailbot/internal/adapters/binanceclient"
	"trailbot/internal/adapters/logger"
	"trailbot/internal/pkg/symbol"
	"trailbot/internal/strategy/indicators"
	"trailbot/internal/utils"
)

func main() {
	pair := flag.String("symbol", "BTC/USDT", "trading pair, BASE/QUOTE or exchange form")
	interval := flag.String("interval", "1m", "kline interval")
	days := flag.Int("days", 7, "how many days back to fetch")
	out := flag.String("out", "", "output CSV path (default data/<SYMBOL>_<interval>_<from>_to_<to>.csv)")
	withIndicators := flag.Bool("indicators", false, "append EMA/RSI/volume average columns")
	testnet := flag.Bool("testnet", false, "use the spot testnet")
	level := flag.String("log-level", "INFO", "log level")
	flag.Parse()

	appLogger := logger.New(logger.ParseLevel(*level))
	ctx := context.Background()

	if !symbol.IsValid(*pair) {
		log.Fatalf("invalid symbol %q", *pair)
	}
	if *days <= 0 {
		log.Fatalf("days must be positive, got %d", *days)
	}

	client, err := binanceclient.New(binanceclient.Config{UseTestnet: *testnet, Logger: appLogger})
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize Binance client: %v", err)
	}

	end := time.Now()
	start := end.AddDate(0, 0, -*days)

	fmt.Printf("Fetching klines for %s %s from %s to %s...\n", symbol.Normalize(*pair), *interval, start.Format(time.RFC3339), end.Format(time.RFC3339))
	klines, err := client.FetchCandlesRange(ctx, *pair, *interval, start, end)
	if err != nil {
		log.Fatalf("Error fetching klines: %v", err)
	}
	appLogger.Info(ctx, "Fetched klines", map[string]interface{}{"count": len(klines)})

	var snaps []indicators.Snapshot
	if *withIndicators {
		snaps = indicators.Compute(klines, indicators.DefaultSettings())
	}

	filename := *out
	if filename == "" {
		filename = fmt.Sprintf("data/%s_%s_%s_to_%s.csv", strings.ToUpper(symbol.ToBinance(*pair)), *interval, start.Format("20060102"), end.Format("20060102"))
	}
	if err := utils.WriteKlinesToCSV(klines, snaps, filename); err != nil {
		log.Fatalf("Error writing CSV: %v", err)
	}
	appLogger.Info(ctx, "Saved klines", map[string]interface{}{"filename": filename})
}
