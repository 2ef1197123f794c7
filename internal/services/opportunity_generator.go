package services

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/justQrius/ai-opportunity-browser/internal/models"
)

const (
	maxExcerpts         = 3
	maxExcerptRunes     = 160
	fullConfidenceCount = 5.0
	fullAICategories    = 3.0
)

// titleRule maps theme keywords to a title template. MLTemplate is used when the cluster
// talks about machine learning explicitly.
type titleRule struct {
	Name       string
	Keywords   []string
	Template   string
	MLTemplate string
}

var titleRules = []titleRule{
	{
		Name:       "document_processing",
		Keywords:   []string{"invoice", "document", "pdf", "receipt", "contract", "paperwork", "form", "ocr", "attachment"},
		Template:   "AI-Powered %s Processing Automation",
		MLTemplate: "Intelligent %s Processing with Machine Learning",
	},
	{
		Name:       "communication",
		Keywords:   []string{"email", "inbox", "message", "chat", "ticket", "meeting", "slack", "support"},
		Template:   "Smart %s Management Assistant",
		MLTemplate: "ML-Driven %s Triage and Response",
	},
	{
		Name:       "data_pipeline",
		Keywords:   []string{"data", "spreadsheet", "report", "dashboard", "etl", "database", "csv", "excel"},
		Template:   "Automated %s Workflow Platform",
		MLTemplate: "Predictive %s Analytics Platform",
	},
	{
		Name:       "sales",
		Keywords:   []string{"crm", "sale", "lead", "customer", "pipeline", "prospect"},
		Template:   "AI %s Automation for Sales Teams",
		MLTemplate: "Predictive %s Scoring for Sales Teams",
	},
	{
		Name:       "developer",
		Keywords:   []string{"code", "api", "bug", "deploy", "test", "github", "developer", "review"},
		Template:   "AI Copilot for %s Workflows",
		MLTemplate: "ML-Assisted %s Quality Platform",
	},
}

var generalTitleRule = titleRule{
	Name:       "general",
	Template:   "AI-Powered %s Solution",
	MLTemplate: "Machine Learning %s Solution",
}

var mlKeywords = []string{"machine learning", "ml ", "predict", "classif", "ml model", "predictive model", "training data", "neural", "deep learning"}

// aiSolutionFamily lists keywords that indicate an AI technique. Families are reported in
// table order. Keywords match word prefixes unless they end in a space.
type aiSolutionFamily struct {
	Type     models.AISolutionType
	Keywords []string
}

var aiSolutionFamilies = []aiSolutionFamily{
	{models.AISolutionMachineLearning, []string{"machine learning", "ml ", "classif", "predict", "recommend", "forecast", "anomal", "ml model", "predictive model", "training data"}},
	{models.AISolutionNLP, []string{"nlp", "natural language", "language", "text", "sentiment", "summar", "chatbot", "translat", "parsing"}},
	{models.AISolutionComputerVision, []string{"vision", "image", "ocr", "photo", "video", "scan"}},
	{models.AISolutionAutomation, []string{"automat", "workflow", "manual", "repetitive", "schedul"}},
	{models.AISolutionGenerativeAI, []string{"generat", "gpt", "llm", "draft", "copywrit"}},
}

type industryRule struct {
	Industry string
	Keywords []string
}

var industryRules = []industryRule{
	{"finance", []string{"invoice", "accounting", "bookkeep", "payment", "expense", "tax ", "taxes ", "financ", "bank"}},
	{"sales", []string{"crm", "sales", "lead ", "leads ", "prospect", "pipeline"}},
	{"healthcare", []string{"patient", "clinic", "medical", "health", "hospital"}},
	{"legal", []string{"legal", "contract", "lawyer", "compliance"}},
	{"ecommerce", []string{"ecommerce", "shopify", "online store", "checkout", "inventory"}},
	{"customer_service", []string{"customer support", "helpdesk", "support ticket", "customer service"}},
	{"human_resources", []string{"hiring", "recruit", "resume", "onboarding", "payroll"}},
	{"logistics", []string{"shipping", "delivery", "logistics", "warehouse", "freight"}},
	{"education", []string{"student", "teacher", "classroom", "course", "school"}},
	{"software", []string{"developer", "github", "code", "api", "deploy", "bug"}},
}

// OpportunityCandidateGenerator turns one signal cluster into an opportunity candidate
// using rule tables and text templates
type OpportunityCandidateGenerator struct{}

// NewOpportunityCandidateGenerator creates a new generator
func NewOpportunityCandidateGenerator() *OpportunityCandidateGenerator {
	return &OpportunityCandidateGenerator{}
}

// Generate synthesizes a candidate from the cluster. It returns nil only for a cluster
// without signals.
func (g *OpportunityCandidateGenerator) Generate(cluster models.SignalCluster) *models.OpportunityCandidate {
	if len(cluster.Signals) == 0 {
		return nil
	}

	contents := make([]string, 0, len(cluster.Signals))
	for _, s := range cluster.Signals {
		contents = append(contents, NormalizeText(s.Content))
	}
	corpus := strings.Join(contents, " ")

	aiTypes := classifyAISolutionTypes(corpus)
	industries := detectIndustries(contents)
	title := g.buildTitle(cluster.DominantThemes, hasAnyKeyword(corpus, mlKeywords))

	candidate := &models.OpportunityCandidate{
		ClusterID:             cluster.ClusterID,
		Title:                 title,
		Description:           buildDescription(cluster),
		ProblemStatement:      buildProblemStatement(cluster),
		ProposedSolution:      buildProposedSolution(cluster, aiTypes),
		AISolutionTypes:       aiTypes,
		TargetIndustries:      industries,
		ConfidenceScore:       clamp01(0.7*cluster.ConfidenceLevel + 0.3*math.Min(1, float64(len(cluster.Signals))/fullConfidenceCount)),
		MarketValidationScore: clamp(0.7*cluster.MarketPotential+30*math.Min(1, math.Log10(1+math.Max(0, float64(cluster.TotalEngagement)))/fullEngagementLog10), 0, 100),
		AIFeasibilityScore:    clamp(0.7*cluster.AIOpportunityScore+30*math.Min(1, float64(len(aiTypes))/fullAICategories), 0, 100),
		MarketSignals:         cluster.SignalIDs(),
	}
	candidate.Fingerprint = CandidateFingerprint(candidate)

	return candidate
}

func (g *OpportunityCandidateGenerator) buildTitle(themes []string, mentionsML bool) string {
	rule, theme := generalTitleRule, "Workflow"
	if len(themes) > 0 {
		theme = themes[0]
	}

match:
	for _, t := range themes {
		for _, r := range titleRules {
			for _, kw := range r.Keywords {
				if t == kw {
					rule, theme = r, t
					break match
				}
			}
		}
	}

	template := rule.Template
	if mentionsML {
		template = rule.MLTemplate
	}
	// Casers keep state, so each title gets its own
	return fmt.Sprintf(template, cases.Title(language.English).String(theme))
}

func buildDescription(cluster models.SignalCluster) string {
	sources := cluster.DistinctSources()
	sourceList := "unknown sources"
	if len(sources) > 0 {
		sourceList = strings.Join(sources, ", ")
	}

	relevance := 0.0
	for _, s := range cluster.Signals {
		relevance += clamp(s.AIRelevanceScore, 0, 100)
	}
	relevance /= float64(len(cluster.Signals))

	themes := "no recurring keywords"
	if len(cluster.DominantThemes) > 0 {
		themes = strings.Join(cluster.DominantThemes, ", ")
	}

	return fmt.Sprintf(
		"Opportunity identified from %d market signals across %d sources (%s). Recurring themes: %s. Average AI relevance is %.0f/100.",
		cluster.SignalCount, len(sources), sourceList, themes, relevance,
	)
}

func buildProblemStatement(cluster models.SignalCluster) string {
	excerpts := collectExcerpts(cluster.Signals, func(t models.SignalType) bool {
		return t == models.SignalTypePainPoint
	})
	if len(excerpts) > 0 {
		return fmt.Sprintf("Users report recurring pain: %s", quoteExcerpts(excerpts))
	}
	return fmt.Sprintf("Teams working with %s face repetitive work that current tools leave unsolved.", themePhrase(cluster.DominantThemes))
}

func buildProposedSolution(cluster models.SignalCluster, aiTypes []models.AISolutionType) string {
	labels := make([]string, 0, len(aiTypes))
	for _, t := range aiTypes {
		labels = append(labels, strings.ReplaceAll(string(t), "_", " "))
	}
	approach := strings.Join(labels, " and ")

	excerpts := collectExcerpts(cluster.Signals, func(t models.SignalType) bool {
		return t.IsDemand()
	})
	if len(excerpts) > 0 {
		return fmt.Sprintf("Build a %s product that delivers what users ask for: %s", approach, quoteExcerpts(excerpts))
	}
	return fmt.Sprintf("Apply %s to %s so the work runs without manual effort.", approach, themePhrase(cluster.DominantThemes))
}

func collectExcerpts(signals []models.MarketSignal, include func(models.SignalType) bool) []string {
	var excerpts []string
	for _, s := range signals {
		if !include(s.SignalType) {
			continue
		}
		text := strings.Join(strings.Fields(s.Content), " ")
		if text == "" {
			continue
		}
		excerpts = append(excerpts, truncateExcerpt(text, maxExcerptRunes))
		if len(excerpts) == maxExcerpts {
			break
		}
	}
	return excerpts
}

func truncateExcerpt(text string, limit int) string {
	r := []rune(text)
	if len(r) <= limit {
		return text
	}
	cut := string(r[:limit])
	if i := strings.LastIndex(cut, " "); i > 0 {
		cut = cut[:i]
	}
	return cut + "..."
}

func quoteExcerpts(excerpts []string) string {
	quoted := make([]string, 0, len(excerpts))
	for _, e := range excerpts {
		quoted = append(quoted, fmt.Sprintf("%q", e))
	}
	return strings.Join(quoted, "; ")
}

func themePhrase(themes []string) string {
	switch len(themes) {
	case 0:
		return "these workflows"
	case 1:
		return themes[0]
	}
	if len(themes) > 3 {
		themes = themes[:3]
	}
	return strings.Join(themes[:len(themes)-1], ", ") + " and " + themes[len(themes)-1]
}

// classifyAISolutionTypes scans normalized text for AI keyword families and never returns
// an empty result
func classifyAISolutionTypes(normalized string) []models.AISolutionType {
	var types []models.AISolutionType
	for _, family := range aiSolutionFamilies {
		if hasAnyKeyword(normalized, family.Keywords) {
			types = append(types, family.Type)
		}
	}
	if len(types) == 0 {
		types = []models.AISolutionType{models.AISolutionAutomation}
	}
	return types
}

// detectIndustries orders industries by how many signals mention them, ties by table order
func detectIndustries(contents []string) []string {
	type hit struct {
		industry string
		count    int
	}
	var hits []hit
	for _, rule := range industryRules {
		count := 0
		for _, content := range contents {
			if hasAnyKeyword(content, rule.Keywords) {
				count++
			}
		}
		if count > 0 {
			hits = append(hits, hit{rule.Industry, count})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].count > hits[j].count
	})

	industries := make([]string, 0, len(hits))
	for _, h := range hits {
		industries = append(industries, h.industry)
	}
	return industries
}

func hasAnyKeyword(normalized string, keywords []string) bool {
	if normalized == "" {
		return false
	}
	for _, kw := range keywords {
		if containsPhrase(normalized, kw) {
			return true
		}
	}
	return false
}

// CandidateFingerprint identifies near-identical opportunities across batches: normalized
// title, AI solution types and industries, order-insensitive for the sets
func CandidateFingerprint(candidate *models.OpportunityCandidate) string {
	aiTypes := make([]string, 0, len(candidate.AISolutionTypes))
	for _, t := range candidate.AISolutionTypes {
		aiTypes = append(aiTypes, string(t))
	}
	sort.Strings(aiTypes)

	industries := append([]string(nil), candidate.TargetIndustries...)
	sort.Strings(industries)

	h := sha256.New()
	h.Write([]byte(NormalizeText(candidate.Title)))
	h.Write([]byte{0})
	h.Write([]byte(strings.Join(aiTypes, ",")))
	h.Write([]byte{0})
	h.Write([]byte(strings.Join(industries, ",")))
	return hex.EncodeToString(h.Sum(nil))
}
