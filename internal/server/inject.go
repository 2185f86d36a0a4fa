package server

import (
	"bytes"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// ReloadScript reconnects to /ws and reloads the page on every build
// notification.
const ReloadScript = `<script data-mtb-reload>
(function () {
  var retry = 0;
  function connect() {
    var proto = location.protocol === "https:" ? "wss://" : "ws://";
    var ws = new WebSocket(proto + location.host + "/ws");
    ws.onopen = function () { retry = 0; };
    ws.onmessage = function (e) {
      var msg = JSON.parse(e.data);
      if (msg.type === "reload" || msg.type === "build_error") {
        location.reload();
      }
    };
    ws.onclose = function () {
      retry = Math.min(retry + 1, 10);
      setTimeout(connect, 250 * retry);
    };
  }
  connect();
})();
</script>`

// InjectScript inserts script before the last </body> tag of doc. Documents
// without a body end tag get the script appended.
func InjectScript(doc []byte, script string) []byte {
	offset := bodyEndOffset(doc)
	if offset < 0 {
		out := make([]byte, 0, len(doc)+len(script))
		out = append(out, doc...)
		return append(out, script...)
	}

	var buf bytes.Buffer
	buf.Grow(len(doc) + len(script))
	buf.Write(doc[:offset])
	buf.WriteString(script)
	buf.Write(doc[offset:])

	return buf.Bytes()
}

// bodyEndOffset returns the byte offset of the last </body> tag, or -1.
// Tokenizing keeps tags that appear inside comments or scripts from
// matching.
func bodyEndOffset(doc []byte) int {
	z := html.NewTokenizer(bytes.NewReader(doc))
	pos, last := 0, -1

	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			return last
		}

		raw := len(z.Raw())
		if tt == html.EndTagToken {
			name, _ := z.TagName()
			if atom.Lookup(name) == atom.Body {
				last = pos
			}
		}
		pos += raw
	}
}
