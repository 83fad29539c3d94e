package notify

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTelegramNilSafe(t *testing.T) {
	var tg *Telegram
	require.NoError(t, tg.Start(context.Background()))
	tg.Stop()
	tg.Send("dropped")

	empty := &Telegram{}
	require.NoError(t, empty.Start(context.Background()))
	empty.Stop()
}

func TestTelegramStopCancelsPolling(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	tg := &Telegram{cancel: cancel}

	tg.Stop()

	select {
	case <-ctx.Done():
	default:
		t.Fatal("polling context still live after Stop")
	}
}
