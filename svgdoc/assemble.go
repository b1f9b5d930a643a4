// Builds the HTML page computing the viewBox of a set of icons.
// The optimized icons are inlined in a wrapping <svg id="svg"> element;
// the embedded client script sets their viewBox from the browser
// bounding box, shows previews and offers the combined file for download.
package svgdoc

import (
	"strings"
	"text/template"

	_ "embed"
)

var (
	//go:embed assets/page.html.tmpl
	pageTemplateRaw string

	//go:embed assets/client.js
	clientScriptRaw string
)

// WrapperID is the id of the element wrapping the icons.
const WrapperID = "svg"

// Title is the title of the generated page.
const Title = "Calculate SVG Bounding Boxes"

// Options parametrize the client script.
type Options struct {
	// DownloadName is the name of the file saved by the download button.
	DownloadName string
	// ContentType is the MIME type of the download.
	// The default, text/csv, does not match the content.
	ContentType string
	// PreviewHeight is the height forced on each preview.
	PreviewHeight string
}

// DefaultOptions returns the options of the original page.
func DefaultOptions() Options {
	return Options{
		DownloadName:  "letters.svg",
		ContentType:   "text/csv",
		PreviewHeight: "80px",
	}
}

// empty fields are replaced by their default value
func (opts Options) withDefaults() Options {
	def := DefaultOptions()
	if opts.DownloadName == "" {
		opts.DownloadName = def.DownloadName
	}
	if opts.ContentType == "" {
		opts.ContentType = def.ContentType
	}
	if opts.PreviewHeight == "" {
		opts.PreviewHeight = def.PreviewHeight
	}
	return opts
}

var pageTemplate = template.Must(template.New("page").Parse(pageTemplateRaw))

func init() {
	template.Must(pageTemplate.New("client.js").Parse(clientScriptRaw))
}

type pageData struct {
	Fragments []string
	Options   Options
}

func render(name string, data any) string {
	var b strings.Builder
	// the templates are static and only receive strings,
	// so execution can't fail
	if err := pageTemplate.ExecuteTemplate(&b, name, data); err != nil {
		panic("svgdoc: " + err.Error())
	}
	return b.String()
}

// Assemble returns the HTML page embedding `fragments`, in order,
// each followed by a newline. The fragments are inserted verbatim.
func Assemble(fragments [][]byte, opts Options) string {
	data := pageData{
		Fragments: make([]string, len(fragments)),
		Options:   opts.withDefaults(),
	}
	for i, f := range fragments {
		data.Fragments[i] = string(f)
	}
	return render("page", data)
}

// Script returns the client script, as embedded in the page.
func Script(opts Options) string {
	return render("client.js", opts.withDefaults())
}
