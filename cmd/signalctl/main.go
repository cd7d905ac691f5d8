// signalctl publishes a trading signal to the Kafka ingestion topic. It is
// an operator tool for exercising the consumer path end to end.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"
	"time"

	"sigmapips/internal/domain/models"
	"sigmapips/pkg/config"
	pkgkafka "sigmapips/pkg/kafka"

	"github.com/joho/godotenv"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "config file path")
	instrument := flag.String("instrument", "EURUSD", "instrument symbol")
	timeframe := flag.String("timeframe", "15m", "signal timeframe")
	action := flag.String("action", "BUY", "BUY or SELL")
	price := flag.Float64("price", 0, "entry price")
	stopLoss := flag.Float64("stop-loss", 0, "stop loss level")
	takeProfit := flag.Float64("take-profit", 0, "take profit level")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.LoadWithEnv(*configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}
	if len(cfg.Kafka.Brokers) == 0 {
		log.Fatal("kafka.brokers is empty; nothing to publish to")
	}

	req := &models.SignalRequest{
		Instrument: *instrument,
		Timeframe:  *timeframe,
		Action:     *action,
		Price:      price,
		StopLoss:   stopLoss,
		TakeProfit: takeProfit,
	}
	if _, err := req.ToSignal(time.Now()); err != nil {
		log.Fatalf("invalid signal: %v", err)
	}

	producer, err := pkgkafka.NewProducer(pkgkafka.WithBrokers(cfg.Kafka.Brokers))
	if err != nil {
		log.Fatalf("producer: %v", err)
	}
	defer producer.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := producer.Publish(ctx, cfg.Kafka.Topic, []byte(*instrument), req); err != nil {
		log.Fatalf("publish failed: %v", err)
	}

	out, _ := json.Marshal(req)
	log.Printf("published to %s: %s", cfg.Kafka.Topic, out)
	os.Exit(0)
}
