package ui

import (
	"context"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/varsilias/energy-advisor/internal/keys"
	"github.com/varsilias/energy-advisor/internal/logging"
	"github.com/varsilias/energy-advisor/pkg/types"
)

const writeTimeout = 5 * time.Second

// event is one frame pushed to the page.
type event struct {
	Type      string `json:"type"` // message | state | key
	ID        string `json:"id,omitempty"`
	Sender    string `json:"sender,omitempty"`
	HTML      string `json:"html,omitempty"`
	Awaiting  bool   `json:"awaiting"`
	KeyPrompt bool   `json:"key_prompt"`
}

// Stream pushes every appended message, rendered, plus key prompts. The first
// frame is always a "state" snapshot so the page can sync its input controls.
func (u *UI) Stream(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context(), u.log)
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		log.Warn("websocket accept", "err", err)
		return
	}
	defer conn.CloseNow()

	// Clients never send; CloseRead handles control frames and cancels ctx
	// when the peer goes away.
	ctx := conn.CloseRead(r.Context())

	feed, cancel := u.chat.Subscribe(32)
	defer cancel()

	var keyFeed <-chan keys.State
	if u.keys != nil {
		ch, cancelKeys := u.keys.Subscribe()
		defer cancelKeys()
		keyFeed = ch
	}

	if err := u.send(ctx, conn, u.stateEvent()); err != nil {
		return
	}

	ping := time.NewTicker(u.pingEvery)
	defer ping.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case m, ok := <-feed:
			if !ok {
				return
			}
			ev, err := u.messageEvent(m)
			if err != nil {
				log.Error("render message", "err", err)
				continue
			}
			if err := u.send(ctx, conn, ev); err != nil {
				return
			}
		case st, ok := <-keyFeed:
			if !ok {
				keyFeed = nil
				continue
			}
			if err := u.send(ctx, conn, event{Type: "key", Awaiting: u.chat.Awaiting(), KeyPrompt: st.Prompt}); err != nil {
				return
			}
		case <-ping.C:
			pctx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := conn.Ping(pctx)
			cancel()
			if err != nil {
				return
			}
		}
	}
}

func (u *UI) stateEvent() event {
	ev := event{Type: "state", Awaiting: u.chat.Awaiting()}
	if u.keys != nil {
		ev.KeyPrompt = u.keys.State().Prompt
	}
	return ev
}

func (u *UI) messageEvent(m types.Message) (event, error) {
	html, err := u.renderString("message.html", u.view(m))
	if err != nil {
		return event{}, err
	}
	return event{
		Type:     "message",
		ID:       m.ID,
		Sender:   string(m.Sender),
		HTML:     html,
		Awaiting: u.chat.Awaiting(),
	}, nil
}

func (u *UI) send(ctx context.Context, conn *websocket.Conn, ev event) error {
	wctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return wsjson.Write(wctx, conn, ev)
}
