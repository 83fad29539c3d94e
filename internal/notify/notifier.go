package notify

import (
	"context"
	"fmt"
	"log"
	"strings"

	tgbot "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"pool_trader/internal/models"
)

type Notifier interface {
	Send(msg string)
	Sendf(format string, args ...any)
}

// PositionSource feeds the /positions command.
type PositionSource interface {
	Snapshot() []models.Position
}

// TradeSource feeds the /trades command.
type TradeSource interface {
	ListRecent(ctx context.Context, limit int) ([]models.TradeRecord, error)
}

// TickSource feeds the /price command.
type TickSource interface {
	GetRecentTicks(ctx context.Context, symbol string, limit int) ([]models.Tick, error)
}

// VenueSource feeds the /venue command for reconciling the local book
// against the brokerage.
type VenueSource interface {
	GetPositions(ctx context.Context) ([]models.Position, error)
}

// Telegram is a passive notifier plus read-only chat commands
// (/positions, /trades, /price, /venue).
type Telegram struct {
	bot       *tgbot.BotAPI
	chatID    int64
	positions PositionSource
	trades    TradeSource
	ticks     TickSource
	venue     VenueSource
	cancel    context.CancelFunc
}

func NewTelegram(token string, chatID int64, positions PositionSource, trades TradeSource, ticks TickSource, venue VenueSource) (*Telegram, error) {
	b, err := tgbot.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	return &Telegram{
		bot:       b,
		chatID:    chatID,
		positions: positions,
		trades:    trades,
		ticks:     ticks,
		venue:     venue,
	}, nil
}

func (t *Telegram) Send(msg string) {
	if t == nil || t.bot == nil || t.chatID == 0 {
		return
	}
	_, _ = t.bot.Send(tgbot.NewMessage(t.chatID, msg))
}

func (t *Telegram) Sendf(format string, args ...any) { t.Send(fmt.Sprintf(format, args...)) }

func (t *Telegram) handlePositions() {
	if t.positions == nil {
		t.Send("position book is not wired")
		return
	}
	snapshot := t.positions.Snapshot()
	if len(snapshot) == 0 {
		t.Send("no open positions")
		return
	}

	var b strings.Builder
	b.WriteString("open positions:\n")
	for _, p := range snapshot {
		fmt.Fprintf(&b, "- %s qty=%.0f avg=%.2f realized=%.2f\n",
			p.Symbol, p.Qty, p.AvgEntry, p.Realized)
	}
	t.Send(b.String())
}

func (t *Telegram) handleTrades(ctx context.Context) {
	if t.trades == nil {
		t.Send("trade ledger is not wired")
		return
	}
	recs, err := t.trades.ListRecent(ctx, 10)
	if err != nil {
		t.Sendf("trades: %v", err)
		return
	}
	if len(recs) == 0 {
		t.Send("no trades yet")
		return
	}

	var b strings.Builder
	b.WriteString("recent trades:\n")
	for _, r := range recs {
		fmt.Fprintf(&b, "- #%d %s %s qty=%.0f @ %.2f [%s/%s]\n",
			r.ID, r.Side, r.Symbol, r.Quantity, r.Price, r.Mode, r.Status)
	}
	t.Send(b.String())
}

// /venue — positions as the brokerage reports them.
func (t *Telegram) handleVenue(ctx context.Context) {
	if t.venue == nil {
		t.Send("brokerage is not wired")
		return
	}
	positions, err := t.venue.GetPositions(ctx)
	if err != nil {
		t.Sendf("venue positions: %v", err)
		return
	}
	if len(positions) == 0 {
		t.Send("venue reports no open positions")
		return
	}

	var b strings.Builder
	b.WriteString("venue positions:\n")
	for _, p := range positions {
		fmt.Fprintf(&b, "- %s %s qty=%.0f avg=%.2f\n", p.Side, p.Symbol, p.Qty, p.AvgEntry)
	}
	t.Send(b.String())
}

// /price <symbol> — last trade from the market data provider.
func (t *Telegram) handlePrice(ctx context.Context, symbol string) {
	if t.ticks == nil {
		t.Send("tick source is not wired")
		return
	}
	if symbol == "" {
		t.Send("usage: /price <symbol>")
		return
	}
	ticks, err := t.ticks.GetRecentTicks(ctx, symbol, 1)
	if err != nil {
		t.Sendf("price %s: %v", symbol, err)
		return
	}
	if len(ticks) == 0 {
		t.Sendf("no recent trades for %s", symbol)
		return
	}
	last := ticks[len(ticks)-1]
	t.Sendf("%s last=%.2f vol=%.0f at %s", symbol, last.Price, last.Volume,
		last.Timestamp.Format("15:04:05"))
}

// Start: long-polling for chat commands.
func (t *Telegram) Start(ctx context.Context) error {
	if t == nil || t.bot == nil {
		return nil
	}
	ctx, t.cancel = context.WithCancel(ctx)

	u := tgbot.NewUpdate(0)
	u.Timeout = 30
	u.AllowedUpdates = []string{"message"}

	updates := t.bot.GetUpdatesChan(u)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case upd := <-updates:
				if upd.Message == nil || upd.Message.Chat == nil ||
					upd.Message.Chat.ID != t.chatID || !upd.Message.IsCommand() {
					continue
				}
				switch upd.Message.Command() {
				case "positions":
					go t.handlePositions()
				case "trades":
					go t.handleTrades(ctx)
				case "price":
					go t.handlePrice(ctx, strings.TrimSpace(upd.Message.CommandArguments()))
				case "venue":
					go t.handleVenue(ctx)
				}
			}
		}
	}()
	return nil
}

// Stop cancels the polling goroutine and closes the update channel.
func (t *Telegram) Stop() {
	if t == nil {
		return
	}
	if t.cancel != nil {
		t.cancel()
	}
	if t.bot != nil {
		t.bot.StopReceivingUpdates()
	}
}

// Stdout logs everything, used when no telegram token is configured.
type Stdout struct{}

func NewStdout() *Stdout                           { return &Stdout{} }
func (s *Stdout) Send(msg string)                  { log.Println(msg) }
func (s *Stdout) Sendf(format string, args ...any) { log.Printf(format, args...) }
