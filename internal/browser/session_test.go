package browser

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestForwardCancel(t *testing.T) {
	parent, parentCancel := context.WithCancel(context.Background())
	child, childCancel := context.WithCancel(context.Background())
	defer childCancel()

	stop := forwardCancel(parent, childCancel)
	defer stop()

	parentCancel()
	select {
	case <-child.Done():
	case <-time.After(time.Second):
		t.Fatal("cancellation was not forwarded")
	}
}

func TestForwardCancelNilParent(t *testing.T) {
	stop := forwardCancel(nil, func() { t.Fatal("cancel must not fire") })
	stop()
}

// The remaining tests need a local Chrome; they skip when one is missing so
// CI without a browser still passes.

func TestSessionNavigateAndRead(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<!doctype html><html><body><script>document.body.innerHTML = '<div id="refs">DOI: 10.1000/xyz123</div>';</script></body></html>`)
	}))
	defer srv.Close()

	sess, err := NewSession(Config{
		Headless:    true,
		NavTimeout:  10 * time.Second,
		SettleDelay: 200 * time.Millisecond,
	}, nil)
	if err != nil {
		t.Skipf("chrome unavailable: %v", err)
	}
	defer sess.Close()

	ctx := context.Background()
	require.NoError(t, sess.Navigate(ctx, srv.URL))

	text, err := sess.BodyText(ctx)
	require.NoError(t, err)
	require.Contains(t, text, "10.1000/xyz123")

	html, err := sess.HTML(ctx)
	require.NoError(t, err)
	require.Contains(t, html, `id="refs"`)

	loc, err := sess.Location(ctx)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(loc, srv.URL))
}

func TestClickFirstFallsThroughMissingSelectors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<!doctype html><html><body><button id="show" onclick="document.body.innerHTML += '<p id=done>shown</p>'">Show</button></body></html>`)
	}))
	defer srv.Close()

	sess, err := NewSession(Config{
		Headless:    true,
		NavTimeout:  10 * time.Second,
		ClickWait:   time.Second,
		SettleDelay: 100 * time.Millisecond,
	}, nil)
	if err != nil {
		t.Skipf("chrome unavailable: %v", err)
	}
	defer sess.Close()

	ctx := context.Background()
	require.NoError(t, sess.Navigate(ctx, srv.URL))

	require.False(t, sess.ClickFirst(ctx, "#missing", "#also-missing"))
	require.True(t, sess.ClickFirst(ctx, "#missing", "#show"))

	html, err := sess.HTML(ctx)
	require.NoError(t, err)
	require.Contains(t, html, "shown")
}

func TestCloseIsIdempotentAndNilSafe(t *testing.T) {
	var s *Session
	s.Close()
}
