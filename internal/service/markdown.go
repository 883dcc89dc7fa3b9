package service

import (
	"bytes"
	"html"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	ghtml "github.com/yuin/goldmark/renderer/html"
	"go.uber.org/zap"

	"github.com/inkfolio/internal/logging"
)

// footnoteIDPrefix 为脚注锚点添加命名空间，避免同页多篇内容的 id 冲突。
// 详情页渲染完成后会被剥离，保证 #fn:1 形式的页内跳转可用。
const footnoteIDPrefix = "footnote-"

var (
	// 正文里允许出现裸 HTML 的 <img> 标签，渲染前统一转回 Markdown 图片语法
	rawImgPattern  = regexp.MustCompile(`(?i)<img\b[^>]*>`)
	srcAttrPattern = regexp.MustCompile(`(?i)\bsrc\s*=\s*["']([^"']+)["']`)
	altAttrPattern = regexp.MustCompile(`(?i)\balt\s*=\s*["']([^"']*)["']`)

	languageClassPattern = regexp.MustCompile(`^language-[\w+-]+$`)
	footnoteClassPattern = regexp.MustCompile(`^footnotes$|^footnote-(ref|backref)$`)
	footnoteIDPattern    = regexp.MustCompile(`^fn(ref)?:[0-9]+$`)
	lazyPattern          = regexp.MustCompile(`^lazy$`)
)

// MarkdownService converts post markdown into sanitized display HTML.
type MarkdownService struct {
	engine goldmark.Markdown
	policy *bluemonday.Policy
}

// NewMarkdownService builds the markdown engine and the sanitizer policy.
func NewMarkdownService() *MarkdownService {
	engine := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			extension.Linkify,
			extension.Table,
			extension.NewFootnote(
				extension.WithFootnoteIDPrefix(footnoteIDPrefix),
			),
		),
		goldmark.WithRendererOptions(
			ghtml.WithHardWraps(),
			ghtml.WithXHTML(),
			// 裸 HTML 先放行，交由 bluemonday 统一清洗
			ghtml.WithUnsafe(),
		),
	)

	policy := bluemonday.UGCPolicy()
	policy.AllowAttrs("class").Matching(languageClassPattern).OnElements("code")
	policy.AllowAttrs("class").Matching(footnoteClassPattern).OnElements("div", "a", "sup")
	policy.AllowAttrs("id").Matching(footnoteIDPattern).OnElements("li", "sup")
	policy.AllowAttrs("role").OnElements("div", "a", "sup", "li")
	policy.AllowAttrs("loading").Matching(lazyPattern).OnElements("img")
	policy.AddTargetBlankToFullyQualifiedLinks(true)

	return &MarkdownService{engine: engine, policy: policy}
}

// Render converts arbitrary markdown into sanitized HTML. It never fails:
// empty input yields an empty string, and a renderer error falls back to the
// escaped source text.
func (m *MarkdownService) Render(content string) string {
	if strings.TrimSpace(content) == "" {
		return ""
	}

	normalized := normalizeRawImages(content)

	var buf bytes.Buffer
	if err := m.engine.Convert([]byte(normalized), &buf); err != nil {
		logging.L().Error("markdown conversion failed", zap.Error(err))
		return "<p>" + html.EscapeString(content) + "</p>"
	}

	out := stripFootnotePrefix(buf.String())
	out = lazyLoadImages(out)
	out = m.policy.Sanitize(out)
	return addNoReferrer(out)
}

// normalizeRawImages 将正文中的裸 <img> 标签改写为 Markdown 图片语法，
// 使其与原生图片走同一渲染与清洗路径。缺少 src 的标签没有可渲染的内容，
// 直接丢弃。
func normalizeRawImages(content string) string {
	return rawImgPattern.ReplaceAllStringFunc(content, func(tag string) string {
		src := srcAttrPattern.FindStringSubmatch(tag)
		if len(src) < 2 || strings.TrimSpace(src[1]) == "" {
			return ""
		}

		alt := ""
		if groups := altAttrPattern.FindStringSubmatch(tag); len(groups) >= 2 {
			alt = groups[1]
		}

		return "![" + alt + "](" + src[1] + ")"
	})
}

// stripFootnotePrefix 剥离脚注命名空间前缀，让锚点在当前文档内解析。
func stripFootnotePrefix(rendered string) string {
	rendered = strings.ReplaceAll(rendered, `"#`+footnoteIDPrefix, `"#`)
	return strings.ReplaceAll(rendered, `id="`+footnoteIDPrefix, `id="`)
}

// lazyLoadImages 为所有图片补上惰性加载属性。
func lazyLoadImages(rendered string) string {
	return strings.ReplaceAll(rendered, "<img ", `<img loading="lazy" `)
}

// addNoReferrer 补全外链的 rel 值。bluemonday 在加 target="_blank" 时只会
// 写入 noopener，这里追加 noreferrer 以避免泄露来源页。
func addNoReferrer(rendered string) string {
	return strings.ReplaceAll(rendered,
		`rel="nofollow noopener"`,
		`rel="nofollow noopener noreferrer"`)
}
