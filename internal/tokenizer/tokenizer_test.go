package tokenizer

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"testing"
)

type recorder struct {
	events    []string
	starts    []StartTag
	directive Directive
	// switchOn toggles full lexing while inside elements with this name.
	switchOn string
}

func (r *recorder) HandleStartTag(_ []byte, tag *StartTag) error {
	r.events = append(r.events, "start "+tag.LocalName().String())
	snapshot := *tag
	if tag.AttributesReady() {
		snapshot.attrs = slices.Clone(tag.attrs)
	}
	r.starts = append(r.starts, snapshot)
	if r.switchOn != "" && tag.LocalName().String() == r.switchOn {
		r.directive = DirectiveLex
	}
	return nil
}

func (r *recorder) HandleEndTag(_ []byte, tag *EndTag) error {
	r.events = append(r.events, "end "+tag.LocalName().String())
	if r.switchOn != "" && tag.LocalName().String() == r.switchOn {
		r.directive = DirectiveScanForTags
	}
	return nil
}

func (r *recorder) HandleText(input []byte, text Span) error {
	r.events = append(r.events, "text "+string(text.Of(input)))
	return nil
}

func (r *recorder) HandleComment(input []byte, comment Span) error {
	r.events = append(r.events, "comment "+string(comment.Of(input)))
	return nil
}

func (r *recorder) Directive() Directive {
	return r.directive
}

func parseLast(t *testing.T, directive Directive, input string) []string {
	t.Helper()
	r := &recorder{directive: directive}
	tok := New(r, directive)
	blocked, err := tok.Parse(LastChunk([]byte(input)))
	if err != nil {
		t.Fatalf("Parse(%q) error = %v", input, err)
	}
	if blocked != 0 {
		t.Fatalf("Parse(%q) blocked = %d on last chunk", input, blocked)
	}
	return r.events
}

func TestParseLexDocument(t *testing.T) {
	got := parseLast(t, DirectiveLex, `<!DOCTYPE html><p class=a>Hi <b>there</b><!-- c --></p>`)
	want := []string{
		"start p",
		"text Hi ",
		"start b",
		"text there",
		"end b",
		"comment <!-- c -->",
		"end p",
	}
	if !slices.Equal(got, want) {
		t.Fatalf("events = %q, want %q", got, want)
	}
}

func TestParseScanSkipsTextAndComments(t *testing.T) {
	got := parseLast(t, DirectiveScanForTags, `<p class=a>Hi <b>there</b><!-- c --></p>`)
	want := []string{"start p", "start b", "end b", "end p"}
	if !slices.Equal(got, want) {
		t.Fatalf("events = %q, want %q", got, want)
	}
}

func TestParseBlocked(t *testing.T) {
	tests := []struct {
		input   string
		blocked int
		events  []string
	}{
		{input: "<di", blocked: 3},
		{input: "ab<", blocked: 1, events: []string{"text ab"}},
		{input: "x</", blocked: 2, events: []string{"text x"}},
		{input: "<!-", blocked: 3},
		{input: "<!--x", blocked: 5},
		{input: "<!-- a -- b", blocked: 11},
		{input: "<!DOCTYPE", blocked: 9},
		{input: `<a title=">`, blocked: 11},
		{input: "a < b", events: []string{"text a < b"}},
		{input: `<a title=">">x`, events: []string{"start a", "text x"}},
		{input: "<p>text</p", blocked: 3, events: []string{"start p", "text text"}},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			r := &recorder{directive: DirectiveLex}
			blocked, err := New(r, DirectiveLex).Parse(NewChunk([]byte(tt.input)))
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			if blocked != tt.blocked {
				t.Fatalf("blocked = %d, want %d", blocked, tt.blocked)
			}
			if !slices.Equal(r.events, tt.events) {
				t.Fatalf("events = %q, want %q", r.events, tt.events)
			}
		})
	}
}

func TestParseLastChunkResolvesIncompleteMarkup(t *testing.T) {
	tests := []struct {
		input string
		want  []string
	}{
		{input: "<div", want: []string{"text <div"}},
		{input: "a<", want: []string{"text a<"}},
		{input: `</div x="`, want: []string{`text </div x="`}},
		{input: "<!--x", want: []string{"comment <!--x"}},
		{input: "<!x", want: []string{"comment <!x"}},
		{input: "<!", want: []string{"comment <!"}},
		{input: "<!-->", want: []string{"comment <!-->"}},
		{input: "<!--->", want: []string{"comment <!--->"}},
		{input: "<?php x ?>", want: []string{"comment <?php x ?>"}},
		{input: "</>x", want: []string{"text x"}},
		{input: "</ x>", want: []string{"comment </ x>"}},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := parseLast(t, DirectiveLex, tt.input)
			if !slices.Equal(got, tt.want) {
				t.Fatalf("events = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseRawText(t *testing.T) {
	tests := []struct {
		input string
		want  []string
	}{
		{
			input: `<script>if (a<b) x="</p>"</script>`,
			want:  []string{"start script", `text if (a<b) x="</p>"`, "end script"},
		},
		{
			input: "<title>a</titlex></TITLE >b",
			want:  []string{"start title", "text a</titlex>", "end title", "text b"},
		},
		{
			input: "<style><b></style>",
			want:  []string{"start style", "text <b>", "end style"},
		},
		{
			input: "<script/><b>",
			want:  []string{"start script", "start b"},
		},
		{
			input: "<textarea>x</text",
			want:  []string{"start textarea", "text x</text"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := parseLast(t, DirectiveLex, tt.input)
			if !slices.Equal(got, tt.want) {
				t.Fatalf("events = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseRawTextAcrossChunks(t *testing.T) {
	r := &recorder{directive: DirectiveLex}
	tok := New(r, DirectiveLex)

	blocked, err := tok.Parse(NewChunk([]byte("<script>x</scr")))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if blocked != 5 {
		t.Fatalf("blocked = %d, want 5", blocked)
	}
	if got := tok.RawTextElement().String(); got != "script" {
		t.Fatalf("RawTextElement() = %q, want script", got)
	}

	blocked, err = tok.Parse(NewChunk([]byte("</scry<")))
	if err != nil || blocked != 1 {
		t.Fatalf("Parse() = %d, %v, want 1, nil", blocked, err)
	}

	if _, err := tok.Parse(LastChunk([]byte("</script>z"))); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	want := []string{"start script", "text x", "text </scry", "end script", "text z"}
	if !slices.Equal(r.events, want) {
		t.Fatalf("events = %q, want %q", r.events, want)
	}
	if !tok.RawTextElement().IsEmpty() {
		t.Fatalf("RawTextElement() = %q after end tag", tok.RawTextElement())
	}
}

func TestStartTagAttributes(t *testing.T) {
	r := &recorder{directive: DirectiveLex}
	input := `<INPUT TYPE=text value="a b" disabled data-x='1' type=other />`
	if _, err := New(r, DirectiveLex).Parse(LastChunk([]byte(input))); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(r.starts) != 1 {
		t.Fatalf("start tags = %d, want 1", len(r.starts))
	}
	tag := r.starts[0]
	if got := tag.LocalName().String(); got != "input" {
		t.Fatalf("name = %q, want input", got)
	}
	if !tag.SelfClosing || tag.Opens() {
		t.Fatalf("SelfClosing = %v, Opens = %v, want true, false", tag.SelfClosing, tag.Opens())
	}

	var got []string
	for _, attr := range tag.attrs {
		got = append(got, fmt.Sprintf("%s=%q", attr.Name, attr.Value))
	}
	want := []string{`type="text"`, `value="a b"`, `disabled=""`, `data-x="1"`}
	if !slices.Equal(got, want) {
		t.Fatalf("attributes = %v, want %v", got, want)
	}
	if raw := string(tag.attrs[1].Raw.Of([]byte(input))); raw != `value="a b"` {
		t.Fatalf("raw = %q, want %q", raw, `value="a b"`)
	}
	if v, ok := tag.attrs.Value("Data-X"); !ok || v != "1" {
		t.Fatalf("Value(Data-X) = %q, %v", v, ok)
	}
}

func TestSelfClosingDetection(t *testing.T) {
	tests := []struct {
		input       string
		selfClosing bool
		opens       bool
	}{
		{input: "<div>", opens: true},
		{input: "<div/>", selfClosing: true},
		{input: "<div />", selfClosing: true},
		{input: "<div / >", opens: true},
		{input: "<a href=x/>", opens: true},
		{input: `<a href="x"/>`, selfClosing: true},
		{input: "<br>"},
		{input: "<img src=a>"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			r := &recorder{}
			if _, err := New(r, DirectiveScanForTags).Parse(LastChunk([]byte(tt.input))); err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			tag := r.starts[0]
			if tag.SelfClosing != tt.selfClosing || tag.Opens() != tt.opens {
				t.Fatalf("SelfClosing = %v, Opens = %v, want %v, %v", tag.SelfClosing, tag.Opens(), tt.selfClosing, tt.opens)
			}
		})
	}
}

func TestScanLexesAttributesOnDemand(t *testing.T) {
	var ready []bool
	h := &lazyHandler{onStart: func(tag *StartTag) {
		ready = append(ready, tag.AttributesReady())
		if v, ok := tag.Attributes().Value("id"); !ok || v != "x" {
			t.Fatalf("Value(id) = %q, %v, want x", v, ok)
		}
		ready = append(ready, tag.AttributesReady())
	}}
	if _, err := New(h, DirectiveScanForTags).Parse(LastChunk([]byte(`<p id=x>`))); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if !slices.Equal(ready, []bool{false, true}) {
		t.Fatalf("ready = %v, want [false true]", ready)
	}
}

type lazyHandler struct {
	recorder
	onStart func(*StartTag)
}

func (h *lazyHandler) HandleStartTag(_ []byte, tag *StartTag) error {
	h.onStart(tag)
	return nil
}

func TestDirectiveRefreshedAfterEachToken(t *testing.T) {
	r := &recorder{switchOn: "p"}
	if _, err := New(r, DirectiveScanForTags).Parse(LastChunk([]byte("a<p>b<!--c--></p>d<!--e-->"))); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	want := []string{"start p", "text b", "comment <!--c-->", "end p"}
	if !slices.Equal(r.events, want) {
		t.Fatalf("events = %q, want %q", r.events, want)
	}
}

func TestWithDecoder(t *testing.T) {
	r := &recorder{directive: DirectiveLex}
	tok := New(r, DirectiveLex, WithDecoder(func(b []byte) string {
		return strings.ToUpper(string(b))
	}))
	if _, err := tok.Parse(LastChunk([]byte(`<a title=abc>`))); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if v, _ := r.starts[0].attrs.Value("title"); v != "ABC" {
		t.Fatalf("title = %q, want ABC", v)
	}
}

func TestHandlerErrorStopsParse(t *testing.T) {
	h := &failingHandler{}
	_, err := New(h, DirectiveScanForTags).Parse(LastChunk([]byte("<a><b>")))
	if !errors.Is(err, errStop) {
		t.Fatalf("Parse() error = %v, want %v", err, errStop)
	}
	if h.calls != 1 {
		t.Fatalf("calls = %d, want 1", h.calls)
	}
}

var errStop = errors.New("stop")

type failingHandler struct {
	recorder
	calls int
}

func (h *failingHandler) HandleStartTag([]byte, *StartTag) error {
	h.calls++
	return errStop
}

func TestElementClassification(t *testing.T) {
	tests := []struct {
		name    string
		void    bool
		rawText bool
	}{
		{name: "br", void: true},
		{name: "IMG", void: true},
		{name: "script", rawText: true},
		{name: "Title", rawText: true},
		{name: "div"},
		{name: "custom-el"},
	}
	for _, tt := range tests {
		r := &recorder{}
		if _, err := New(r, DirectiveScanForTags).Parse(LastChunk([]byte("<" + tt.name + ">"))); err != nil {
			t.Fatalf("Parse() error = %v", err)
		}
		name := r.starts[0].LocalName()
		if got := IsVoidElement(name); got != tt.void {
			t.Fatalf("IsVoidElement(%s) = %v, want %v", tt.name, got, tt.void)
		}
		if got := IsRawTextElement(name); got != tt.rawText {
			t.Fatalf("IsRawTextElement(%s) = %v, want %v", tt.name, got, tt.rawText)
		}
	}
}
