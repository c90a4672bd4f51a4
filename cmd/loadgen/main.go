package main

import (
	"bufio"
	"flag"
	"fmt"
	"math/rand"
	"net"
	"os"
	"strings"
	"time"
)

// Streams randomly generated CSV orders into the engine's intake listener,
// in the same wire format the listener parses:
// orderId,accountId,symbol,side,type,price,quantity,timestamp
func main() {
	addr := flag.String("addr", "localhost:9000", "engine intake address")
	symbols := flag.String("symbols", "AAPL,GOOG,TSLA", "comma-separated symbols")
	rate := flag.Float64("rate", 1.0, "orders per second")
	limit := flag.Int("limit", 0, "total orders to send (0 = infinite)")
	seed := flag.Int64("seed", time.Now().UnixNano(), "seed for the random stream")
	flag.Parse()

	rng := rand.New(rand.NewSource(*seed))
	symbolList := strings.Split(*symbols, ",")
	interval := time.Duration(float64(time.Second) / *rate)

	conn, err := net.Dial("tcp", *addr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "dial %s: %v\n", *addr, err)
		os.Exit(1)
	}
	defer conn.Close()

	fmt.Printf("connected to %s, streaming orders at %.1f Hz\n", *addr, *rate)

	w := bufio.NewWriter(conn)
	orderID := uint64(1)

	for {
		symbol := symbolList[rng.Intn(len(symbolList))]
		side := rng.Intn(2)
		orderType := rng.Intn(2) // limit or market
		price := 0.0
		if orderType == 0 {
			price = 100 + rng.Float64()*100
		}
		qty := rng.Intn(10) + 1
		account := rng.Intn(5) + 1

		line := fmt.Sprintf("%d,%d,%s,%d,%d,%.2f,%d,%d\n",
			orderID, account, symbol, side, orderType, price, qty, time.Now().UnixNano())

		if _, err := w.WriteString(line); err != nil {
			fmt.Fprintf(os.Stderr, "write: %v\n", err)
			os.Exit(1)
		}
		if err := w.Flush(); err != nil {
			fmt.Fprintf(os.Stderr, "flush: %v\n", err)
			os.Exit(1)
		}

		orderID++
		if *limit > 0 && orderID > uint64(*limit) {
			return
		}
		time.Sleep(interval)
	}
}
