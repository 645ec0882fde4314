package assistant

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/phuslu/log"

	"finaudit/pkg/core/agent"
	"finaudit/pkg/core/intent"
	"finaudit/pkg/core/prompt"
	"finaudit/pkg/core/store"
)

// AnalysisRunner starts a full analysis run; satisfied by pipeline.Runner.
// An empty year means the runner's default reporting year.
type AnalysisRunner interface {
	RunFullAnalysisForYear(ctx context.Context, entityName, year string) (*store.AnalysisContext, error)
}

// Assistant holds one conversation: the entity under discussion, the query
// history, and the handlers over cached analysis contexts.
type Assistant struct {
	cache   *store.ContextCache
	runner  AnalysisRunner
	manager *agent.Manager

	mu      sync.Mutex
	entity  string
	history []ConversationTurn
}

// New creates an assistant session. manager may be nil; the explanation and
// general handlers then answer from cached material only.
func New(cache *store.ContextCache, runner AnalysisRunner, manager *agent.Manager) *Assistant {
	return &Assistant{cache: cache, runner: runner, manager: manager}
}

// CurrentEntity returns the entity the conversation is about.
func (a *Assistant) CurrentEntity() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.entity
}

// SetEntity pins the conversation to an entity.
func (a *Assistant) SetEntity(name string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entity = name
}

// History returns the most recent turns, newest last. limit <= 0 means all.
func (a *Assistant) History(limit int) []ConversationTurn {
	a.mu.Lock()
	defer a.mu.Unlock()
	if limit <= 0 || limit >= len(a.history) {
		out := make([]ConversationTurn, len(a.history))
		copy(out, a.history)
		return out
	}
	out := make([]ConversationTurn, limit)
	copy(out, a.history[len(a.history)-limit:])
	return out
}

// ClearHistory drops the conversation log but keeps the active entity.
func (a *Assistant) ClearHistory() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.history = nil
}

// HandleQuery classifies one query, refreshes the active entity from the
// query text, and dispatches to the category handler.
func (a *Assistant) HandleQuery(ctx context.Context, query string) (*Response, error) {
	if extracted := intent.ExtractCompany(query); extracted != "" {
		a.SetEntity(extracted)
	}
	entity := a.CurrentEntity()
	category := intent.Classify(query)
	log.Debug().Str("entity", entity).Str("category", string(category)).Msg("query dispatched")

	var resp *Response
	var err error
	switch category {
	case intent.FullAnalysis:
		resp, err = a.handleFullAnalysis(ctx, entity, query)
	case intent.RatioQuery:
		resp = a.handleRatioQuery(entity, query)
	case intent.FraudQuery:
		resp = a.handleFraudQuery(entity)
	case intent.Comparison:
		resp = a.handleComparison(entity, query)
	case intent.Visualization:
		resp = a.handleVisualization(entity, query)
	case intent.Explanation:
		resp = a.handleExplanation(ctx, entity, query)
	case intent.DataSource:
		resp = a.handleDataSource(entity)
	case intent.Report:
		resp = a.handleReport(entity, query)
	default:
		resp = a.handleGeneral(ctx, entity, query)
	}
	if err != nil {
		return nil, err
	}

	resp.Category = category
	a.mu.Lock()
	a.history = append(a.history, ConversationTurn{
		Timestamp: time.Now(),
		Query:     query,
		Entity:    entity,
		Category:  category,
		Type:      resp.Type,
	})
	a.mu.Unlock()
	return resp, nil
}

// requireContext resolves the cached analysis for the active entity, or
// returns the guidance response to send instead.
func (a *Assistant) requireContext(entity string) (*store.AnalysisContext, *Response) {
	if entity == "" {
		return nil, &Response{
			Type:        TypeCompanyRequest,
			Message:     "분석할 회사명을 알려주세요.",
			Suggestions: []string{"삼성전자", "LG전자", "현대자동차", "SK하이닉스"},
		}
	}
	actx := a.cache.Get(entity)
	if actx == nil {
		return nil, &Response{
			Type:    TypeAnalysisNeeded,
			Entity:  entity,
			Message: fmt.Sprintf("%s의 분석을 먼저 진행해주세요.", entity),
		}
	}
	return actx, nil
}

func (a *Assistant) handleFullAnalysis(ctx context.Context, entity, query string) (*Response, error) {
	if entity == "" {
		return &Response{
			Type:        TypeCompanyRequest,
			Message:     "분석할 회사명을 알려주세요.",
			Suggestions: []string{"삼성전자", "LG전자", "현대자동차", "SK하이닉스"},
		}, nil
	}

	actx, err := a.runner.RunFullAnalysisForYear(ctx, entity, intent.ExtractYear(query))
	if err != nil {
		return nil, err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s 분석 완료\n\n", entity)
	fmt.Fprintf(&b, "종합 등급: %s (신뢰도 %d%%)\n\n", actx.FinalGrade(), confidenceOf(actx.FinalConsensus))
	b.WriteString("주요 재무지표:\n")
	fmt.Fprintf(&b, "- 매출액: %s\n", FormatCurrency(actx.Record.Revenue))
	fmt.Fprintf(&b, "- 순이익: %s\n", FormatCurrency(actx.Record.NetIncome))
	fmt.Fprintf(&b, "- ROE: %s\n", FormatPercent(actx.Ratios.ROE))
	fmt.Fprintf(&b, "- 부채비율: %s\n\n", FormatPercent(actx.Ratios.DebtRatio))
	fmt.Fprintf(&b, "부정위험: %d점 (%s)", actx.Fraud.RiskScore, actx.Fraud.RiskLevel)

	return &Response{
		Type:        TypeAnalysisComplete,
		Entity:      entity,
		Message:     b.String(),
		Grade:       actx.FinalGrade(),
		Confidence:  confidenceOf(actx.FinalConsensus),
		Suggestions: a.followupSuggestions(),
	}, nil
}

func (a *Assistant) handleRatioQuery(entity, query string) *Response {
	actx, guide := a.requireContext(entity)
	if guide != nil {
		return guide
	}

	all := actx.Ratios.AsMap()
	requested := requestedRatios(query)
	selected := all
	if len(requested) > 0 {
		selected = map[string]float64{}
		for _, name := range requested {
			if v, ok := all[name]; ok {
				selected[name] = v
			}
		}
	}

	formatted := make(map[string]string, len(selected))
	for name, v := range selected {
		formatted[name] = FormatPercent(v)
	}

	return &Response{
		Type:    TypeRatio,
		Entity:  entity,
		Message: ratioExplanation(selected),
		Ratios:  formatted,
	}
}

func (a *Assistant) handleFraudQuery(entity string) *Response {
	actx, guide := a.requireContext(entity)
	if guide != nil {
		return guide
	}
	fi := actx.Fraud

	var b strings.Builder
	fmt.Fprintf(&b, "종합 부정위험 점수: %d점 (%s)\n", fi.RiskScore, fi.RiskLevel)

	var concerns []string
	if fi.PositiveIncomeNegativeCashFlow {
		concerns = append(concerns, "순이익은 양수이지만 영업현금흐름이 음수입니다.")
	}
	if fi.ReceivablesToRevenue > 25 {
		concerns = append(concerns, "매출채권 비율이 비정상적으로 높습니다.")
	}
	if fi.CashFlowToNetIncome < 0.5 {
		concerns = append(concerns, "현금흐름 대 순이익 비율이 낮습니다.")
	}
	if len(concerns) > 0 {
		b.WriteString("\n주요 우려사항:\n")
		for _, c := range concerns {
			fmt.Fprintf(&b, "- %s\n", c)
		}
	} else {
		b.WriteString("\n특별한 부정위험 징후는 발견되지 않았습니다.")
	}
	if actx.FraudConsensus != nil {
		fmt.Fprintf(&b, "\n심의 등급: %s (신뢰도 %d%%)", actx.FraudConsensus.Grade, actx.FraudConsensus.Confidence)
	}

	return &Response{
		Type:       TypeFraud,
		Entity:     entity,
		Message:    b.String(),
		Grade:      gradeOf(actx.FraudConsensus),
		Confidence: confidenceOf(actx.FraudConsensus),
	}
}

func (a *Assistant) handleComparison(entity, query string) *Response {
	actx, guide := a.requireContext(entity)
	if guide != nil {
		return guide
	}

	switch comparisonTarget(query) {
	case "industry":
		comps := industryComparison(actx)
		var lines []string
		for _, c := range comps {
			status := "열세"
			if c.Favorable {
				status = "우수"
			}
			lines = append(lines, fmt.Sprintf("%s: %.1f%% (업계 %.1f%%, %s)", c.Ratio, c.Company, c.Benchmark, status))
		}
		return &Response{
			Type:       TypeComparison,
			Entity:     entity,
			Message:    strings.Join(lines, "\n"),
			Comparison: comps,
		}
	case "previous_year":
		if !actx.Ratios.HasGrowth {
			return &Response{
				Type:    TypeComparison,
				Entity:  entity,
				Message: "전년 비교 데이터가 없습니다.",
			}
		}
		msg := fmt.Sprintf("%s 전년 대비: 매출성장률 %s, 순이익성장률 %s",
			entity, FormatPercent(actx.Ratios.RevenueGrowth), FormatPercent(actx.Ratios.NetIncomeGrowth))
		return &Response{Type: TypeComparison, Entity: entity, Message: msg}
	default:
		return &Response{
			Type:    TypeComparisonOpts,
			Entity:  entity,
			Message: "어떤 기준으로 비교하시겠습니까?",
			Options: []string{"업계 평균", "전년 대비"},
		}
	}
}

func (a *Assistant) handleVisualization(entity, query string) *Response {
	_, guide := a.requireContext(entity)
	if guide != nil {
		return guide
	}
	req := &ArtifactRequest{
		Kind:      "chart",
		ChartType: chartType(query),
		Entity:    entity,
	}
	return &Response{
		Type:    TypeArtifactRequest,
		Entity:  entity,
		Message: fmt.Sprintf("%s 차트(%s) 생성을 요청했습니다.", entity, req.ChartType),
		Request: req,
	}
}

func (a *Assistant) handleExplanation(ctx context.Context, entity, query string) *Response {
	actx, guide := a.requireContext(entity)
	if guide != nil {
		return guide
	}

	// Grounding material for the explanation is the consensus prose plus the
	// deterministic figures; the live call is best-effort.
	consensus := ""
	if actx.FinalConsensus != nil {
		consensus = actx.FinalConsensus.FinalText
	}
	if a.manager != nil {
		userPrompt := fmt.Sprintf(
			"사용자 질문: %q\n\n%s의 분석 결과를 바탕으로 이해하기 쉽게 설명해주세요.\n\n심의 결론:\n%s\n\n재무 수치:\n%s",
			query, entity, consensus, contextSummary(actx))
		if answer, err := a.manager.ExecutePrompt(ctx, "coordinator", userPrompt,
			systemPrompt(prompt.PromptIDs.Explanation,
				"당신은 재무 분석 결과를 일반인에게 설명하는 회계 전문가입니다."), nil); err == nil {
			return &Response{Type: TypeExplanation, Entity: entity, Message: answer}
		}
		log.Warn().Str("entity", entity).Msg("explanation backend unavailable, serving consensus text")
	}
	if consensus == "" {
		consensus = "설명할 심의 결과가 없습니다."
	}
	return &Response{Type: TypeExplanation, Entity: entity, Message: consensus}
}

func (a *Assistant) handleDataSource(entity string) *Response {
	if entity == "" {
		return &Response{
			Type:    TypeDataSource,
			Message: "분석 데이터는 DART(전자공시시스템) 공식 API에서 수집합니다.",
		}
	}
	actx := a.cache.Get(entity)
	if actx == nil {
		return &Response{
			Type:    TypeDataSource,
			Entity:  entity,
			Message: "아직 분석하지 않은 회사입니다. DART API에서 데이터를 수집할 예정입니다.",
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s 데이터 출처 정보:\n", entity)
	b.WriteString("- 출처: DART(전자공시시스템) 공식 API\n")
	fmt.Fprintf(&b, "- 기준 연도: %s년 사업보고서 (연결재무제표)\n", actx.FiscalYear)
	fmt.Fprintf(&b, "- 수집 시각: %s\n", actx.CreatedAt.Format("2006-01-02 15:04:05"))
	if len(actx.Record.Unmatched) > 0 {
		fmt.Fprintf(&b, "- 미매칭 항목: %s (해당 수치는 0으로 처리됨)", strings.Join(actx.Record.Unmatched, ", "))
	} else {
		b.WriteString("- 모든 핵심 계정과목이 정상 매칭되었습니다.")
	}
	if actx.Validation != nil && !actx.Validation.Clean() {
		fmt.Fprintf(&b, "\n- 정합성 경고: %s", strings.Join(actx.Validation.Warnings(), "; "))
	}
	return &Response{Type: TypeDataSource, Entity: entity, Message: b.String()}
}

func (a *Assistant) handleReport(entity, query string) *Response {
	_, guide := a.requireContext(entity)
	if guide != nil {
		return guide
	}
	req := &ArtifactRequest{
		Kind:    "report",
		Formats: reportFormats(query),
		Entity:  entity,
	}
	return &Response{
		Type:    TypeArtifactRequest,
		Entity:  entity,
		Message: fmt.Sprintf("%s 보고서(%s) 생성을 요청했습니다.", entity, strings.Join(req.Formats, ", ")),
		Request: req,
	}
}

func (a *Assistant) handleGeneral(ctx context.Context, entity, query string) *Response {
	if a.manager != nil {
		current := entity
		if current == "" {
			current = "없음"
		}
		userPrompt := fmt.Sprintf(
			"사용자 질문: %q\n\n현재 분석 중인 회사: %s\n\n회계/재무 전문가 관점에서 도움이 되는 답변을 제공해주세요.",
			query, current)
		if answer, err := a.manager.ExecutePrompt(ctx, "coordinator", userPrompt,
			systemPrompt(prompt.PromptIDs.GeneralAssistant,
				"당신은 기업 재무 감사를 돕는 회계 전문가입니다."), nil); err == nil {
			return &Response{
				Type:        TypeGeneral,
				Entity:      entity,
				Message:     answer,
				Suggestions: a.followupSuggestions(),
			}
		}
	}
	return &Response{
		Type:        TypeGeneral,
		Entity:      entity,
		Message:     "재무 분석 관련 질문을 해주세요. 회사명을 말씀하시면 분석을 시작합니다.",
		Suggestions: a.followupSuggestions(),
	}
}

func (a *Assistant) followupSuggestions() []string {
	entity := a.CurrentEntity()
	if entity == "" {
		return []string{
			"회사 이름을 알려주시면 분석해드릴게요",
			"삼성전자 분석해주세요",
			"어떤 재무비율을 확인하고 싶으신가요?",
		}
	}
	return []string{
		fmt.Sprintf("%s의 재무비율을 보여주세요", entity),
		fmt.Sprintf("%s의 부정 위험을 분석해주세요", entity),
		"업계 평균과 비교해주세요",
		"그래프로 시각화해주세요",
		"보고서를 생성해주세요",
	}
}
