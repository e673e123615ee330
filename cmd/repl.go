package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"

	"plutus/internal/adapters/ai"
	"plutus/internal/agent"
	"plutus/internal/analysis"
	"plutus/internal/tools"
	"plutus/pkg/logger"
)

const helpText = `Commands:
  /portfolio                          show all positions at live prices
  /add TICKER SHARES PRICE [DATE]     buy: record a position (DATE as YYYY-MM-DD)
  /remove TICKER [SHARES]             sell: trim or close a position
  /reindex                            rebuild the semantic search index
  /models                             list available AI models per provider
  /help                               this message
  /quit                               exit

Anything else is sent to the assistant, e.g. "should I buy NVDA?"`

// repl reads user input line by line. Slash commands map straight to tool
// dispatches; free text goes through the agent loop, which keeps the
// conversation transcript across turns.
type repl struct {
	loop       *agent.Loop
	dispatcher *tools.Dispatcher
	providers  *ai.ProviderRegistry
	transcript agent.Transcript
	log        *logger.Logger
}

func newREPL(loop *agent.Loop, dispatcher *tools.Dispatcher, providers *ai.ProviderRegistry, log *logger.Logger) *repl {
	return &repl{
		loop:       loop,
		dispatcher: dispatcher,
		providers:  providers,
		transcript: agent.NewTranscript(),
		log:        log.With("component", "repl"),
	}
}

func (r *repl) run(ctx context.Context) {
	fmt.Println("Plutus, a personal stock research assistant. /help for commands, /quit to exit.")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("plutus> ")
		if !scanner.Scan() || ctx.Err() != nil {
			fmt.Println()
			return
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "/") {
			if quit := r.command(ctx, line); quit {
				return
			}
			continue
		}

		r.chat(ctx, line)
	}
}

func (r *repl) command(ctx context.Context, line string) bool {
	fields := strings.Fields(line)
	cmd, rest := fields[0], fields[1:]

	switch cmd {
	case "/quit", "/exit":
		return true

	case "/help":
		fmt.Println(helpText)

	case "/portfolio":
		res := r.dispatcher.Dispatch(ctx, tools.CallRequest{ID: "cli", Name: "get_portfolio_summary"})
		if res.Status != tools.StatusOK {
			printError(res)
			return false
		}
		if summary, ok := res.Payload.(*analysis.Summary); ok {
			printSummary(summary)
		} else {
			printPayload(res.Payload)
		}

	case "/add":
		if len(rest) < 3 {
			fmt.Println("usage: /add TICKER SHARES PRICE [DATE]")
			return false
		}
		shares, err1 := strconv.ParseFloat(rest[1], 64)
		price, err2 := strconv.ParseFloat(rest[2], 64)
		if err1 != nil || err2 != nil {
			fmt.Println("SHARES and PRICE must be numbers")
			return false
		}
		args := map[string]interface{}{"ticker": rest[0], "shares": shares, "price": price}
		if len(rest) > 3 {
			args["date"] = rest[3]
		}
		printResult(r.dispatcher.Dispatch(ctx, tools.CallRequest{ID: "cli", Name: "add_position", Args: args}))

	case "/remove":
		if len(rest) < 1 {
			fmt.Println("usage: /remove TICKER [SHARES]")
			return false
		}
		args := map[string]interface{}{"ticker": rest[0]}
		if len(rest) > 1 {
			shares, err := strconv.ParseFloat(rest[1], 64)
			if err != nil {
				fmt.Println("SHARES must be a number")
				return false
			}
			args["shares"] = shares
		}
		printResult(r.dispatcher.Dispatch(ctx, tools.CallRequest{ID: "cli", Name: "remove_position", Args: args}))

	case "/reindex":
		printResult(r.dispatcher.Dispatch(ctx, tools.CallRequest{ID: "cli", Name: "reindex_portfolio"}))

	case "/models":
		r.printModels(ctx)

	default:
		fmt.Printf("unknown command %s, try /help\n", cmd)
	}
	return false
}

func (r *repl) chat(ctx context.Context, message string) {
	res, err := r.loop.Run(ctx, r.transcript, message)
	r.transcript = res.Transcript

	if err != nil {
		r.log.Warnw("turn failed", "state", res.State, "error", err)
		if res.Answer != "" {
			fmt.Println(res.Answer)
		} else {
			fmt.Printf("Sorry, that did not work: %v\n", err)
		}
		return
	}
	fmt.Println(res.Answer)
}

func (r *repl) printModels(ctx context.Context) {
	byProvider, err := r.providers.ListModels(ctx)
	if err != nil {
		fmt.Printf("could not list models: %v\n", err)
		return
	}

	for _, name := range r.providers.List() {
		fmt.Printf("%s:\n", name)
		for _, m := range byProvider[name] {
			caps := ""
			if m.SupportsTools {
				caps = "tools"
			}
			fmt.Printf("  %-32s %8s context %7s  $%.4f/$%.4f per 1K\n",
				m.Name, humanize.Comma(int64(m.MaxTokens)), caps,
				m.InputCostPer1K, m.OutputCostPer1K)
		}
	}
}

func printSummary(s *analysis.Summary) {
	if len(s.Positions) == 0 {
		fmt.Println("Portfolio is empty. Use /add to record a position.")
		return
	}

	fmt.Printf("%-7s %12s %12s %14s %14s %9s  %s\n",
		"TICKER", "SHARES", "PRICE", "VALUE", "GAIN", "GAIN%", "SECTOR")
	for _, p := range s.Positions {
		fmt.Printf("%-7s %12s %12s %14s %14s %8s%%  %s\n",
			p.Ticker,
			p.Shares.String(),
			money(p.CurrentPrice.InexactFloat64()),
			money(p.MarketValue.InexactFloat64()),
			money(p.UnrealizedGain.InexactFloat64()),
			p.GainPct.StringFixed(1),
			p.Sector)
	}
	fmt.Printf("\nTotal value %s, unrealized gain %s (%s%%)\n",
		money(s.TotalValue.InexactFloat64()),
		money(s.TotalGain.InexactFloat64()),
		s.TotalGainPct.StringFixed(1))
}

func printResult(res tools.CallResult) {
	if res.Status != tools.StatusOK {
		printError(res)
		return
	}
	printPayload(res.Payload)
}

func printError(res tools.CallResult) {
	fmt.Printf("error [%s]: %s\n", res.Error.Code, res.Error.Message)
}

func printPayload(payload interface{}) {
	if payload == nil {
		fmt.Println("ok")
		return
	}
	body, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		fmt.Printf("%+v\n", payload)
		return
	}
	fmt.Println(string(body))
}

func money(v float64) string {
	return "$" + humanize.CommafWithDigits(v, 2)
}
