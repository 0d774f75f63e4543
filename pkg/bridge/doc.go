// Package bridge drives a browser DOM over a WebSocket.
//
// A Bridge implements dom.Document. Each primitive becomes one JSON
// command:
//
//	{"op":"html","seq":1,"loc":"/html/body/*[1]","markup":"<span></span>"}
//	{"op":"text","seq":2,"loc":"/html/body/*[1]","text":"count: 0"}
//	{"op":"listen","seq":3,"loc":"/html/body/*[2]","event":"click","id":7}
//	{"op":"unlisten","seq":4,"loc":"/html/body/*[2]"}
//
// The client resolves loc with document.evaluate, applies the command and
// answers {"type":"ack","seq":N,"error":""}. An error of "not_found" maps
// to dom.ErrNotFound. A fired listener is reported as
// {"type":"event","id":7}.
//
// The client is embedded; serve ClientScript from the page that hosts the
// app:
//
//	r.Get("/ws", func(w http.ResponseWriter, r *http.Request) {
//	    b, err := bridge.Accept(w, r)
//	    if err != nil {
//	        return
//	    }
//	    a := app.New(root, b)
//	    go a.Run(r.Context())
//	    b.Serve(context.Background())
//	})
package bridge
