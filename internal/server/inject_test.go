package server

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInjectScript(t *testing.T) {
	const script = "<script>x</script>"

	tests := []struct {
		name string
		doc  string
		want string
	}{
		{
			name: "before body end",
			doc:  "<html><body><p>hi</p></body></html>",
			want: "<html><body><p>hi</p><script>x</script></body></html>",
		},
		{
			name: "uppercase tag",
			doc:  "<HTML><BODY>hi</BODY></HTML>",
			want: "<HTML><BODY>hi<script>x</script></BODY></HTML>",
		},
		{
			name: "ignores body tag inside comment",
			doc:  "<body><!-- </body> -->hi</body>",
			want: "<body><!-- </body> -->hi<script>x</script></body>",
		},
		{
			name: "ignores body tag inside script",
			doc:  "<body><script>var s = '</body>';</script></body>",
			want: "<body><script>var s = '</body>';</script><script>x</script></body>",
		},
		{
			name: "fragment without body",
			doc:  "<h1>About</h1>",
			want: "<h1>About</h1><script>x</script>",
		},
		{
			name: "empty document",
			doc:  "",
			want: "<script>x</script>",
		},
		{
			name: "multibyte text before body end",
			doc:  "<body>héllo ✓</body>",
			want: "<body>héllo ✓<script>x</script></body>",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, string(InjectScript([]byte(tt.doc), script)))
		})
	}
}

func FuzzInjectScript(f *testing.F) {
	f.Add("<html><body>x</body></html>")
	f.Add("</body></body>")
	f.Add("<body><!--")

	f.Fuzz(func(t *testing.T, doc string) {
		out := string(InjectScript([]byte(doc), "<s/>"))
		if len(out) != len(doc)+len("<s/>") {
			t.Fatalf("injection must only add the script: %q -> %q", doc, out)
		}
	})
}
