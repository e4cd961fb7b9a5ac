package client

import (
	"context"
	"log"
	"net/http"
	"net/url"
	"sync"

	"github.com/thereayou/lovenest/pkg/tictactoe"
)

// GameClient plays one tic-tac-toe game for the local user. Moves are checked
// against the rules locally before anything is sent, and every request
// carries the version it was based on.
type GameClient struct {
	client *Client
	feed   *Subscriber

	onChange func(Game)

	mu   sync.Mutex
	game *Game
	mark tictactoe.Mark
	sub  *Subscription
}

func NewGameClient(c *Client, feed *Subscriber, onChange func(Game)) *GameClient {
	return &GameClient{client: c, feed: feed, onChange: onChange}
}

// Create opens a game as X. An empty roomCode lets the server pick one.
func (g *GameClient) Create(ctx context.Context, roomCode string) (*Game, error) {
	in := map[string]string{}
	if roomCode != "" {
		code, err := parseRoom(roomCode)
		if err != nil {
			return nil, err
		}
		in["room_code"] = code
	}

	var game Game
	if err := g.client.do(ctx, http.MethodPost, apiPrefix+"/games", in, &game); err != nil {
		return nil, err
	}
	if err := g.track(ctx, &game, tictactoe.X); err != nil {
		return nil, err
	}
	return g.Game(), nil
}

// Join takes the O seat of the newest game in roomCode.
func (g *GameClient) Join(ctx context.Context, roomCode string) (*Game, error) {
	code, err := parseRoom(roomCode)
	if err != nil {
		return nil, err
	}

	var game Game
	if err := g.client.do(ctx, http.MethodPost, apiPrefix+"/games/join", map[string]string{"room_code": code}, &game); err != nil {
		return nil, err
	}
	if err := g.track(ctx, &game, tictactoe.O); err != nil {
		return nil, err
	}
	return g.Game(), nil
}

// Resume follows the newest game in roomCode, playing mark.
func (g *GameClient) Resume(ctx context.Context, roomCode string, mark tictactoe.Mark) (*Game, error) {
	code, err := parseRoom(roomCode)
	if err != nil {
		return nil, err
	}
	if !mark.Valid() {
		return nil, &ValidationError{Field: "mark", Message: tictactoe.ErrInvalidMark.Error(), Err: tictactoe.ErrInvalidMark}
	}

	var game Game
	if err := g.client.do(ctx, http.MethodGet, apiPrefix+"/rooms/"+url.PathEscape(code)+"/"+TableGames, nil, &game); err != nil {
		return nil, err
	}
	if err := g.track(ctx, &game, mark); err != nil {
		return nil, err
	}
	return g.Game(), nil
}

func (g *GameClient) track(ctx context.Context, game *Game, mark tictactoe.Mark) error {
	if err := g.Leave(); err != nil {
		log.Printf("game client: leave: %v", err)
	}

	sub, err := g.feed.Subscribe(ctx, game.RoomCode, TableGames, EventHandlers{
		OnInsert: g.onEvent,
		OnUpdate: g.onEvent,
	})
	if err != nil {
		return err
	}

	g.mu.Lock()
	g.sub = sub
	g.mark = mark
	g.mu.Unlock()
	g.adopt(*game)
	return nil
}

// Move places the local mark on cell. Rule violations are reported as a
// *ValidationError without contacting the server.
func (g *GameClient) Move(ctx context.Context, cell int) (*Game, error) {
	g.mu.Lock()
	if g.game == nil {
		g.mu.Unlock()
		return nil, &ValidationError{Field: "game", Message: "no game in progress"}
	}
	current := *g.game
	mark := g.mark
	g.mu.Unlock()

	if _, err := current.State().Apply(cell, mark); err != nil {
		return nil, &ValidationError{Field: "cell", Message: err.Error(), Err: err}
	}

	in := map[string]any{"cell": cell, "mark": mark, "expected_version": current.Version}
	var next Game
	if err := g.client.do(ctx, http.MethodPost, apiPrefix+"/games/"+current.ID+"/moves", in, &next); err != nil {
		return nil, err
	}
	g.adopt(next)
	return g.Game(), nil
}

// Restart clears the board of a started game.
func (g *GameClient) Restart(ctx context.Context) (*Game, error) {
	g.mu.Lock()
	if g.game == nil {
		g.mu.Unlock()
		return nil, &ValidationError{Field: "game", Message: "no game in progress"}
	}
	current := *g.game
	g.mu.Unlock()

	if _, err := current.State().Restart(); err != nil {
		return nil, &ValidationError{Field: "game", Message: err.Error(), Err: err}
	}

	in := map[string]any{"expected_version": current.Version}
	var next Game
	if err := g.client.do(ctx, http.MethodPost, apiPrefix+"/games/"+current.ID+"/restart", in, &next); err != nil {
		return nil, err
	}
	g.adopt(next)
	return g.Game(), nil
}

// Sync re-reads the game, for instance after a version conflict.
func (g *GameClient) Sync(ctx context.Context) (*Game, error) {
	g.mu.Lock()
	if g.game == nil {
		g.mu.Unlock()
		return nil, &ValidationError{Field: "game", Message: "no game in progress"}
	}
	code := g.game.RoomCode
	g.mu.Unlock()

	var game Game
	if err := g.client.do(ctx, http.MethodGet, apiPrefix+"/rooms/"+url.PathEscape(code)+"/"+TableGames, nil, &game); err != nil {
		return nil, err
	}
	g.adopt(game)
	return g.Game(), nil
}

func (g *GameClient) History(ctx context.Context) ([]GameHistory, error) {
	g.mu.Lock()
	if g.game == nil {
		g.mu.Unlock()
		return nil, &ValidationError{Field: "game", Message: "no game in progress"}
	}
	code := g.game.RoomCode
	g.mu.Unlock()
	return List[GameHistory](ctx, g.client, code, TableGameHistory)
}

func (g *GameClient) onEvent(ev Event) {
	var game Game
	if err := ev.Decode(&game); err != nil {
		log.Printf("game client: %v", err)
		return
	}
	g.adopt(game)
}

// adopt replaces the local game when game is the same game at a newer
// version, or a newer game in the same room. Nothing is adopted once the
// client has left.
func (g *GameClient) adopt(game Game) {
	g.mu.Lock()
	if g.sub == nil {
		g.mu.Unlock()
		return
	}
	cur := g.game
	switch {
	case cur == nil:
	case cur.ID == game.ID && game.Version <= cur.Version:
		g.mu.Unlock()
		return
	case cur.ID != game.ID && (game.RoomCode != cur.RoomCode || !game.CreatedAt.After(cur.CreatedAt)):
		g.mu.Unlock()
		return
	}
	g.game = &game
	g.mu.Unlock()

	if g.onChange != nil {
		g.onChange(game)
	}
}

// Game returns a copy of the latest known game, or nil.
func (g *GameClient) Game() *Game {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.game == nil {
		return nil
	}
	cp := *g.game
	return &cp
}

func (g *GameClient) Mark() tictactoe.Mark {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.mark
}

// Leave stops following the game.
func (g *GameClient) Leave() error {
	g.mu.Lock()
	sub := g.sub
	g.sub = nil
	g.game = nil
	g.mu.Unlock()

	if sub == nil {
		return nil
	}
	return sub.Unsubscribe()
}
