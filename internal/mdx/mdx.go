// Package mdx rewrites markdown constructs into MDX component syntax
// for a Starlight-style documentation site.
//
// Rules run in a fixed order over the whole document; each rule
// declares the components it emits so the import block can be
// assembled afterwards.
package mdx

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// componentModule is the module specifier used for the generated
// import statement.
const componentModule = "@astrojs/starlight/components"

// Rule is one markdown-to-component transformation. Rules are applied
// in registration order; later rules see the output of earlier ones.
type Rule struct {
	Name       string
	Matches    func(content string) bool
	Apply      func(content string) string
	Components []string
}

// Transformer applies the rule list and manages component imports.
type Transformer struct {
	rules []Rule
}

// New creates a Transformer with the default rule list.
func New() *Transformer {
	return &Transformer{rules: defaultRules()}
}

// Transform rewrites content and, when any rule fired, inserts the
// component import after the frontmatter block. Documents that already
// carry an import statement are left without a new one, whether or not
// it covers the components in use.
func (t *Transformer) Transform(content string) string {
	var used []string
	out := content
	for _, rule := range t.rules {
		if !rule.Matches(out) {
			continue
		}
		out = rule.Apply(out)
		used = append(used, rule.Components...)
	}
	if len(used) == 0 {
		return out
	}
	return insertImports(out, used)
}

// Rules returns the rule list, primarily for inspection in tooling.
func (t *Transformer) Rules() []Rule {
	return t.rules
}

var (
	githubAlertRe  = regexp.MustCompile(`(?m)^>\s*\[!(NOTE|TIP|IMPORTANT|WARNING|CAUTION)\]\s*\n((?:>.*\n?)*)`)
	admonitionRe   = regexp.MustCompile(`(?ms)^:::(note|tip|caution|danger|info)(?:\[([^\]]*)\])?\s*\n(.*?)\n:::\s*$`)
	detailsRe      = regexp.MustCompile(`(?ms)<details>\s*<summary>(.*?)</summary>\s*(.*?)\s*</details>`)
	cardLinkRe     = regexp.MustCompile(`(?m)^\[([^\]]+)\]\(([^)\s]+)\)\s*—\s*(.+)$`)
	treeFenceRe    = regexp.MustCompile("(?ms)^```tree\\s*\\n(.*?)\\n```\\s*$")
	badgeRe        = regexp.MustCompile(`\[!badge\s+([^\]]+)\]`)
	tabHeadingRe   = regexp.MustCompile(`(?m)^###\s+Tab:\s*(.+)$`)
	importStmtRe  = regexp.MustCompile(`(?m)^import\s+.+\s+from\s+['"].+['"];?\s*$`)
	frontmatterRe = regexp.MustCompile(`(?s)\A---\s*\n.*?\n---\s*\n?`)
)

// alertTypes maps GitHub alert markers to Aside types.
var alertTypes = map[string]string{
	"NOTE":      "note",
	"TIP":       "tip",
	"IMPORTANT": "note",
	"WARNING":   "caution",
	"CAUTION":   "danger",
}

// admonitionTypes maps fenced admonition names to Aside types.
var admonitionTypes = map[string]string{
	"note":    "note",
	"info":    "note",
	"tip":     "tip",
	"caution": "caution",
	"danger":  "danger",
}

func defaultRules() []Rule {
	return []Rule{
		{
			Name:       "github-alerts",
			Matches:    githubAlertRe.MatchString,
			Apply:      applyGithubAlerts,
			Components: []string{"Aside"},
		},
		{
			Name:       "admonitions",
			Matches:    admonitionRe.MatchString,
			Apply:      applyAdmonitions,
			Components: []string{"Aside"},
		},
		{
			Name:       "details",
			Matches:    detailsRe.MatchString,
			Apply:      applyDetails,
			Components: []string{"Expandable"},
		},
		{
			Name:       "card-links",
			Matches:    cardLinkRe.MatchString,
			Apply:      applyCardLinks,
			Components: []string{"LinkCard"},
		},
		{
			Name:       "file-tree",
			Matches:    treeFenceRe.MatchString,
			Apply:      applyFileTree,
			Components: []string{"FileTree"},
		},
		{
			Name:       "tab-headings",
			Matches:    tabHeadingRe.MatchString,
			Apply:      applyTabHeadings,
			Components: []string{"Tabs", "TabItem"},
		},
		{
			Name:       "code-tabs",
			Matches:    hasCodeTabGroup,
			Apply:      applyCodeTabs,
			Components: []string{"Tabs", "TabItem"},
		},
		{
			Name:       "badges",
			Matches:    badgeRe.MatchString,
			Apply:      applyBadges,
			Components: []string{"Badge"},
		},
	}
}

func applyGithubAlerts(content string) string {
	return githubAlertRe.ReplaceAllStringFunc(content, func(m string) string {
		parts := githubAlertRe.FindStringSubmatch(m)
		kind := alertTypes[parts[1]]
		body := stripQuotePrefix(parts[2])
		return fmt.Sprintf("<Aside type=%q>\n%s\n</Aside>\n", kind, body)
	})
}

func stripQuotePrefix(quoted string) string {
	var lines []string
	for _, line := range strings.Split(strings.TrimRight(quoted, "\n"), "\n") {
		line = strings.TrimPrefix(line, ">")
		line = strings.TrimPrefix(line, " ")
		lines = append(lines, line)
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

func applyAdmonitions(content string) string {
	return admonitionRe.ReplaceAllStringFunc(content, func(m string) string {
		parts := admonitionRe.FindStringSubmatch(m)
		kind := admonitionTypes[strings.ToLower(parts[1])]
		title := strings.TrimSpace(parts[2])
		body := strings.TrimSpace(parts[3])
		if title != "" {
			return fmt.Sprintf("<Aside type=%q title=%q>\n%s\n</Aside>", kind, title, body)
		}
		return fmt.Sprintf("<Aside type=%q>\n%s\n</Aside>", kind, body)
	})
}

func applyDetails(content string) string {
	return detailsRe.ReplaceAllStringFunc(content, func(m string) string {
		parts := detailsRe.FindStringSubmatch(m)
		summary := strings.TrimSpace(parts[1])
		body := strings.TrimSpace(parts[2])
		return fmt.Sprintf("<Expandable title=%q>\n%s\n</Expandable>", summary, body)
	})
}

// applyCardLinks rewrites standalone "[Title](target) — description"
// lines into link cards.
func applyCardLinks(content string) string {
	return cardLinkRe.ReplaceAllString(content, `<LinkCard title="$1" href="$2" description="$3" />`)
}

func applyFileTree(content string) string {
	return treeFenceRe.ReplaceAllString(content, "<FileTree>\n$1\n</FileTree>")
}

func applyBadges(content string) string {
	return badgeRe.ReplaceAllString(content, `<Badge text="$1" />`)
}

// applyTabHeadings converts consecutive "### Tab: Name" sections into
// a tab group. A run ends at the first heading that is not a tab
// heading, or at end of input.
func applyTabHeadings(content string) string {
	lines := strings.Split(content, "\n")
	var out []string
	i := 0
	for i < len(lines) {
		m := tabHeadingRe.FindStringSubmatch(lines[i])
		if m == nil {
			out = append(out, lines[i])
			i++
			continue
		}

		out = append(out, "<Tabs>")
		for i < len(lines) {
			m = tabHeadingRe.FindStringSubmatch(lines[i])
			if m == nil {
				break
			}
			label := strings.TrimSpace(m[1])
			i++
			var body []string
			for i < len(lines) && !strings.HasPrefix(lines[i], "#") {
				body = append(body, lines[i])
				i++
			}
			out = append(out, fmt.Sprintf("<TabItem label=%q>", label))
			out = append(out, strings.TrimSpace(strings.Join(body, "\n")))
			out = append(out, "</TabItem>")
		}
		out = append(out, "</Tabs>")
	}
	return strings.Join(out, "\n")
}

// hasCodeTabGroup reports whether two fenced code blocks with
// different language tags sit back to back, with at most blank lines
// between them. It segments the document the same way applyCodeTabs
// does, so the gate and the rewrite always agree.
func hasCodeTabGroup(content string) bool {
	blocks := splitFences(content)
	for i, b := range blocks {
		if b.lang == "" {
			continue
		}
		for j := i + 1; j < len(blocks); j++ {
			next := blocks[j]
			if next.lang == "" {
				if strings.TrimSpace(next.text) == "" {
					continue
				}
				break
			}
			if next.lang != b.lang {
				return true
			}
			break
		}
	}
	return false
}

// applyCodeTabs wraps runs of two or more consecutive fenced code
// blocks with distinct language tags into a tab group, one tab per
// language.
func applyCodeTabs(content string) string {
	blocks := splitFences(content)
	var out strings.Builder

	i := 0
	for i < len(blocks) {
		b := blocks[i]
		if b.lang == "" {
			out.WriteString(b.text)
			i++
			continue
		}
		run := []fenceBlock{b}
		j := i + 1
		for j < len(blocks) {
			// Blank lines between fences do not break a run.
			if blocks[j].lang == "" {
				if strings.TrimSpace(blocks[j].text) == "" && j+1 < len(blocks) &&
					blocks[j+1].lang != "" && !sameLangs(run, blocks[j+1].lang) {
					j++
					continue
				}
				break
			}
			if sameLangs(run, blocks[j].lang) {
				break
			}
			run = append(run, blocks[j])
			j++
		}
		if len(run) < 2 {
			out.WriteString(b.text)
			i++
			continue
		}
		out.WriteString("<Tabs>\n")
		for _, f := range run {
			fmt.Fprintf(&out, "<TabItem label=%q>\n\n%s\n</TabItem>\n", langLabel(f.lang), strings.TrimRight(f.text, "\n"))
		}
		out.WriteString("</Tabs>\n")
		i = j
	}
	return out.String()
}

func sameLangs(run []fenceBlock, lang string) bool {
	for _, f := range run {
		if f.lang == lang {
			return true
		}
	}
	return false
}

// langLabel maps a fence language tag to a display label.
func langLabel(lang string) string {
	switch strings.ToLower(lang) {
	case "js", "javascript":
		return "JavaScript"
	case "ts", "typescript":
		return "TypeScript"
	case "go", "golang":
		return "Go"
	case "py", "python":
		return "Python"
	case "sh", "bash", "shell":
		return "Shell"
	case "rb", "ruby":
		return "Ruby"
	case "rs", "rust":
		return "Rust"
	default:
		return capitalize(strings.ToLower(lang))
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// fenceBlock is either a fenced code block (lang set) or the text
// between fences (lang empty). text always includes delimiters.
type fenceBlock struct {
	lang string
	text string
}

var fenceOpenRe = regexp.MustCompile("^```([a-zA-Z][a-zA-Z0-9+#-]*)\\s*$")

// splitFences cuts content into alternating prose and fenced-code
// segments. Fences without a language tag stay in the prose stream.
func splitFences(content string) []fenceBlock {
	lines := strings.SplitAfter(content, "\n")
	var blocks []fenceBlock
	var current strings.Builder
	flush := func() {
		if current.Len() > 0 {
			blocks = append(blocks, fenceBlock{text: current.String()})
			current.Reset()
		}
	}

	i := 0
	for i < len(lines) {
		trimmed := strings.TrimRight(lines[i], "\n")
		m := fenceOpenRe.FindStringSubmatch(trimmed)
		if m == nil {
			current.WriteString(lines[i])
			i++
			continue
		}

		// Find the closing fence; an unterminated fence is prose.
		end := -1
		for j := i + 1; j < len(lines); j++ {
			if strings.TrimRight(lines[j], "\n") == "```" {
				end = j
				break
			}
		}
		if end == -1 {
			current.WriteString(lines[i])
			i++
			continue
		}
		flush()
		blocks = append(blocks, fenceBlock{
			lang: m[1],
			text: strings.Join(lines[i:end+1], ""),
		})
		i = end + 1
	}
	flush()
	return blocks
}

// insertImports adds one grouped import statement for the components
// in use, directly after the frontmatter block. When the document
// already contains any import statement, nothing is added.
func insertImports(content string, components []string) string {
	if importStmtRe.MatchString(content) {
		return content
	}

	seen := make(map[string]bool)
	var unique []string
	for _, c := range components {
		if !seen[c] {
			seen[c] = true
			unique = append(unique, c)
		}
	}
	sort.Strings(unique)

	stmt := fmt.Sprintf("import { %s } from '%s';\n\n", strings.Join(unique, ", "), componentModule)

	if m := frontmatterRe.FindStringIndex(content); m != nil && m[0] == 0 {
		head := content[:m[1]]
		rest := strings.TrimLeft(content[m[1]:], "\n")
		if !strings.HasSuffix(head, "\n") {
			head += "\n"
		}
		return head + "\n" + stmt + rest
	}
	return stmt + content
}
