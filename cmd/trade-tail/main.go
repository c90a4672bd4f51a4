// trade-tail follows the engine's trade topic and prints each fill as it
// arrives. Handy for eyeballing a running engine without a Kafka UI.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/segmentio/kafka-go"

	orderbookv1 "github.com/murphylee10/trading-engine/internal/domain/orderbook/v1"
)

func main() {
	var (
		brokers = flag.String("brokers", "localhost:9092", "Kafka broker addresses (comma-separated)")
		topic   = flag.String("topic", "trades", "trade topic name")
		group   = flag.String("group", "", "consumer group id (empty tails from the latest offset)")
		symbol  = flag.String("symbol", "", "only print trades for this symbol")
	)
	flag.Parse()

	config := kafka.ReaderConfig{
		Brokers: strings.Split(*brokers, ","),
		Topic:   *topic,
	}
	if *group != "" {
		config.GroupID = *group
	} else {
		config.StartOffset = kafka.LastOffset
	}

	reader := kafka.NewReader(config)
	defer reader.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	log.Printf("tailing topic %s on %s", *topic, *brokers)

	for {
		msg, err := reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Fatalf("read trade message: %v", err)
		}

		var trade orderbookv1.Trade
		if err := json.Unmarshal(msg.Value, &trade); err != nil {
			log.Printf("skipping unparseable message at offset %d: %v", msg.Offset, err)
			continue
		}

		if *symbol != "" && trade.Symbol != *symbol {
			continue
		}

		log.Printf("#%d %s %d @ %.2f (buy %d / sell %d) %s",
			trade.TradeID, trade.Symbol, trade.Quantity, trade.Price,
			trade.BuyOrderID, trade.SellOrderID,
			time.Unix(0, trade.Timestamp).Format(time.RFC3339Nano),
		)
	}
}
