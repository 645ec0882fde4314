package main

import (
	"context"
	"flag"
	"fmt"
	"io/ioutil"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"

	"finaudit/pkg/core/agent"
	"finaudit/pkg/core/assistant"
	"finaudit/pkg/core/dart"
	"finaudit/pkg/core/deliberation"
	"finaudit/pkg/core/pipeline"
	"finaudit/pkg/core/store"
)

func main() {
	simulate := flag.Bool("simulate", false, "use a scripted backend instead of live LLM providers")
	year := flag.String("year", "", "business year to analyze (default: previous year)")
	timeout := flag.Duration("timeout", 20*time.Minute, "overall analysis deadline")
	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Println("Usage: analyze [flags] <company name>")
		flag.PrintDefaults()
		os.Exit(1)
	}
	company := strings.Join(flag.Args(), " ")

	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, assuming environment variables are set.")
	}

	apiKey := os.Getenv("DART_API_KEY")
	if apiKey == "" && !*simulate {
		log.Fatal("Error: DART_API_KEY is not set.")
	}

	configData, _ := ioutil.ReadFile("config/models.yaml")
	var agentCfg agent.Config
	yaml.Unmarshal(configData, &agentCfg)
	agentMgr := agent.NewManager(agentCfg)

	if *simulate {
		scripted := &deliberation.ScriptedProvider{}
		agentMgr.RegisterProvider("ollama", scripted)
		agentMgr.RegisterProvider("gemini", scripted)
		fmt.Println("[SIMULATE] Deliberation runs against a scripted backend")
	}

	cache := store.NewContextCache()
	runner := pipeline.NewRunner(dart.NewClient(apiKey), agentMgr, cache)
	if *year != "" {
		runner.SetFiscalYear(*year)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	fmt.Printf("Analyzing %s...\n", company)
	actx, err := runner.RunFullAnalysis(ctx, company)
	if err != nil {
		log.Fatalf("Analysis failed: %v", err)
	}

	fmt.Println("\n################################################################################")
	fmt.Println("                     FINANCIAL AUDIT PANEL - ANALYSIS REPORT")
	fmt.Printf("                     Target: %s (FY%s)\n", actx.EntityName, actx.FiscalYear)
	fmt.Println("################################################################################")

	fmt.Println("\n[1] CORE FINANCIALS")
	fmt.Printf("매출액:       %s\n", assistant.FormatCurrency(actx.Record.Revenue))
	fmt.Printf("영업이익:     %s\n", assistant.FormatCurrency(actx.Record.OperatingIncome))
	fmt.Printf("순이익:       %s\n", assistant.FormatCurrency(actx.Record.NetIncome))
	fmt.Printf("총자산:       %s\n", assistant.FormatCurrency(actx.Record.TotalAssets))

	fmt.Println("\n[2] KEY RATIOS")
	fmt.Printf("ROE:          %s\n", assistant.FormatPercent(actx.Ratios.ROE))
	fmt.Printf("ROA:          %s\n", assistant.FormatPercent(actx.Ratios.ROA))
	fmt.Printf("영업이익률:   %s\n", assistant.FormatPercent(actx.Ratios.OperatingMargin))
	fmt.Printf("부채비율:     %s\n", assistant.FormatPercent(actx.Ratios.DebtRatio))

	fmt.Println("\n[3] FRAUD RISK SCREENING")
	fmt.Printf("위험 점수:    %d점 (%s)\n", actx.Fraud.RiskScore, actx.Fraud.RiskLevel)
	fmt.Printf("현금흐름/순이익: %.2f\n", actx.Fraud.CashFlowToNetIncome)
	fmt.Printf("매출채권/매출:   %.1f%%\n", actx.Fraud.ReceivablesToRevenue)
	if actx.Fraud.PositiveIncomeNegativeCashFlow {
		fmt.Println("  - 흑자 보고에도 영업현금흐름이 음수입니다")
	}
	for _, field := range actx.Fraud.LowConfidence {
		fmt.Printf("  - 저신뢰 항목: %s\n", field)
	}

	fmt.Println("\n[4] PANEL VERDICT")
	printConsensus("재무비율", actx.RatioConsensus)
	printConsensus("부정위험", actx.FraudConsensus)
	printConsensus("최종의견", actx.FinalConsensus)

	summary := deliberation.Summarize(actx.Transcript)
	fmt.Printf("\n[Done] %d panel interactions, %d degraded.\n", summary.TotalInteractions, summary.DegradedCalls)
}

func printConsensus(label string, c *deliberation.ConsensusResult) {
	if c == nil {
		fmt.Printf("%s:  (no consensus)\n", label)
		return
	}
	fmt.Printf("%s:  %s등급 (신뢰도 %d%%)\n", label, c.Grade, c.Confidence)
}
