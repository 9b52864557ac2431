package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/mkarlsen/roomcast/internal/config"
	"github.com/mkarlsen/roomcast/internal/observability"
)

// NewHTTPServer creates the HTTP server with production timeout defaults.
//
// Precondition: handler must be non-nil.
func NewHTTPServer(cfg config.ServerConfig, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:         cfg.Addr(),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

// Routes builds the application ServeMux: the built-in client page, the
// liveness check, the WebSocket endpoint, and Prometheus metrics.
//
// Precondition: gateway must be non-nil.
func Routes(gateway http.Handler) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/", IndexHandler)
	mux.HandleFunc("/healthz", HealthzHandler)
	mux.Handle("/ws", gateway)
	mux.Handle("/metrics", observability.MetricsHandler())
	return mux
}

// HealthzHandler reports server liveness.
func HealthzHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	_, _ = fmt.Fprint(w, "ok")
}

// IndexHandler serves the built-in HTML chat client.
func IndexHandler(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = fmt.Fprint(w, indexHTML)
}

const indexHTML = `<!DOCTYPE html>
<html>
<head>
    <title>roomcast</title>
    <style>
        body { font-family: sans-serif; margin: 20px; max-width: 720px; }
        #messages { border: 1px solid #ccc; height: 320px; padding: 10px; overflow-y: scroll; margin: 10px 0; background: #f9f9f9; }
        #members { color: #555; margin: 5px 0; }
        .system { color: gray; font-style: italic; }
        input[type="text"] { padding: 5px; margin-right: 5px; }
        button { padding: 5px 15px; }
    </style>
</head>
<body>
    <h1>roomcast</h1>
    <div>
        <input type="text" id="nickname" placeholder="Nickname">
        <input type="text" id="room" placeholder="Room">
        <button onclick="join()">Join</button>
    </div>
    <div id="members"></div>
    <div id="messages"></div>
    <div>
        <input type="text" id="text" placeholder="Say something..." size="48">
        <button onclick="send()">Send</button>
    </div>
    <script>
        const ws = new WebSocket((location.protocol === 'https:' ? 'wss://' : 'ws://') + location.host + '/ws');
        const messages = document.getElementById('messages');

        function append(html, cls) {
            const div = document.createElement('div');
            if (cls) div.className = cls;
            div.textContent = html;
            messages.appendChild(div);
            messages.scrollTop = messages.scrollHeight;
        }

        ws.onmessage = (e) => {
            const env = JSON.parse(e.data);
            if (env.event === 'system message') {
                append(env.data, 'system');
            } else if (env.event === 'chat message') {
                append(env.data.nickname + ': ' + env.data.message);
            } else if (env.event === 'update user list') {
                document.getElementById('members').textContent =
                    env.data.roomName + ': ' + env.data.userList.join(', ');
            }
        };

        function join() {
            ws.send(JSON.stringify({event: 'join room', data: {
                nickname: document.getElementById('nickname').value,
                room: document.getElementById('room').value
            }}));
        }

        function send() {
            const input = document.getElementById('text');
            ws.send(JSON.stringify({event: 'chat message', data: input.value}));
            input.value = '';
        }

        document.getElementById('text').addEventListener('keydown', (e) => {
            if (e.key === 'Enter') send();
        });
    </script>
</body>
</html>
`
