package tagstream_test

import (
	"fmt"
	"os"

	"github.com/jacoelho/tagstream"
	"github.com/jacoelho/tagstream/errors"
)

type externalLinks struct{}

func (externalLinks) InitialCaptureFlags() tagstream.CaptureFlags { return 0 }

func (externalLinks) CaptureFlags() tagstream.CaptureFlags { return 0 }

func (externalLinks) HandleStartTag(el *tagstream.Element[string]) (tagstream.Rewrite, error) {
	if !el.Matched() {
		return tagstream.Rewrite{}, nil
	}
	href, _ := el.Attributes().Value("href")
	return tagstream.Rewrite{Replace: []byte(`<a href="` + href + `" rel="noopener">`)}, nil
}

func (externalLinks) HandleEndTag(*tagstream.EndTag[string]) (tagstream.Rewrite, error) {
	return tagstream.Rewrite{}, nil
}

func (externalLinks) HandleToken(*tagstream.Token) (tagstream.Rewrite, error) {
	return tagstream.Rewrite{}, nil
}

func ExampleStream() {
	program, err := tagstream.Compile([]tagstream.Rule[string]{
		{Payload: "external", Selector: `a[href^="http"]`},
	})
	if err != nil {
		fmt.Println(err)
		return
	}
	s, err := tagstream.NewStream(program, externalLinks{}, tagstream.WriterSink{W: os.Stdout}, tagstream.NewOptions())
	if err != nil {
		fmt.Println(err)
		return
	}
	for _, chunk := range []string{`<p><a hr`, `ef="https://go.dev">Go</a> <a href="/local">x</a></p>`} {
		if err := s.Write([]byte(chunk)); err != nil {
			fmt.Println(err)
			return
		}
	}
	if err := s.End(); err != nil {
		fmt.Println(err)
	}
	// Output:
	// <p><a href="https://go.dev" rel="noopener">Go</a> <a href="/local">x</a></p>
}

func ExampleCompile_unsupported() {
	_, err := tagstream.Compile([]tagstream.Rule[int]{{Payload: 1, Selector: "h1 + p"}})
	fmt.Println(errors.HasCode(err, errors.ErrUnsupportedSelector))
	// Output: true
}
