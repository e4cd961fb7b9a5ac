package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/thereayou/lovenest/internal/database"
	"github.com/thereayou/lovenest/internal/models"
	"github.com/thereayou/lovenest/pkg/roomcode"
	"github.com/thereayou/lovenest/pkg/tictactoe"
)

const roomCodeAttempts = 5

// Player identifies the acting user.
type Player struct {
	ID   uuid.UUID
	Name string
}

// MoveRequest is one attempted placement. ExpectedVersion, when set, is the
// game version the caller's board was rendered from.
type MoveRequest struct {
	Cell            int
	Mark            tictactoe.Mark
	ExpectedVersion *int64
}

// GameService is the authority over tic-tac-toe rows. Every write is a
// compare-and-swap on the row version, and finished games are recorded in
// history within the same transaction as the finishing move.
type GameService struct {
	db        *database.Database
	publisher *Publisher
	generate  func() (string, error)
}

func NewGameService(db *database.Database, publisher *Publisher) *GameService {
	return &GameService{db: db, publisher: publisher, generate: roomcode.Generate}
}

// CreateGame opens a game with creator as X. An empty code asks for a fresh
// generated one.
func (s *GameService) CreateGame(ctx context.Context, creator Player, code string) (*models.Game, error) {
	if code != "" {
		parsed, err := roomcode.Parse(code)
		if err != nil {
			return nil, err
		}
		code = parsed
	} else {
		var err error
		if code, err = s.freeRoomCode(); err != nil {
			return nil, err
		}
	}

	game := &models.Game{
		RoomCode:    code,
		PlayerXID:   creator.ID,
		PlayerXName: creator.Name,
		Version:     1,
	}
	game.SetState(tictactoe.New())

	if err := s.db.CreateGame(game); err != nil {
		return nil, fmt.Errorf("create game: %w", err)
	}

	s.publisher.Inserted(ctx, models.TableGames, game.RoomCode, game)
	return game, nil
}

func (s *GameService) freeRoomCode() (string, error) {
	for i := 0; i < roomCodeAttempts; i++ {
		code, err := s.generate()
		if err != nil {
			return "", err
		}
		used, err := s.db.RoomCodeInUse(code)
		if err != nil {
			return "", err
		}
		if !used {
			return code, nil
		}
	}
	return "", ErrRoomCodeExhausted
}

// JoinGame seats player as O in the newest game of the room.
func (s *GameService) JoinGame(ctx context.Context, player Player, code string) (*models.Game, error) {
	code, err := roomcode.Parse(code)
	if err != nil {
		return nil, err
	}

	var game *models.Game
	err = s.db.Transaction(func(tx *database.Database) error {
		g, err := tx.LatestGameForUpdate(code)
		if err != nil {
			return gameLookupErr(err)
		}
		if g.PlayerOID != nil {
			return ErrRoomFull
		}

		state, err := g.State().Join()
		if err != nil {
			return ErrRoomFull
		}

		id, name := player.ID, player.Name
		g.PlayerOID = &id
		g.PlayerOName = &name
		g.SetState(state)

		if err := tx.SaveGameIfVersion(g, g.Version); err != nil {
			return casErr(err)
		}
		game = g
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publisher.Updated(ctx, models.TableGames, game.RoomCode, game)
	return game, nil
}

// Move applies one placement on behalf of player. A rejected move leaves the
// stored game untouched.
func (s *GameService) Move(ctx context.Context, player Player, gameID uuid.UUID, req MoveRequest) (*models.Game, error) {
	var (
		game    *models.Game
		history *models.GameHistory
	)
	err := s.db.Transaction(func(tx *database.Database) error {
		g, err := tx.GetGame(gameID)
		if err != nil {
			return gameLookupErr(err)
		}
		if req.ExpectedVersion != nil && *req.ExpectedVersion != g.Version {
			return ErrVersionConflict
		}
		if !g.Plays(player.ID, req.Mark) {
			return ErrNotAPlayer
		}

		state, err := g.State().Apply(req.Cell, req.Mark)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrMoveRejected, err)
		}
		g.SetState(state)

		if err := tx.SaveGameIfVersion(g, g.Version); err != nil {
			return casErr(err)
		}

		if g.Status == tictactoe.StatusFinished {
			history = models.NewGameHistory(g)
			if err := tx.SaveGameHistory(history); err != nil {
				return fmt.Errorf("record history: %w", err)
			}
		}
		game = g
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publisher.Updated(ctx, models.TableGames, game.RoomCode, game)
	if history != nil {
		s.publisher.Inserted(ctx, models.TableGameHistory, history.RoomCode, history)
	}
	return game, nil
}

// Restart clears the board of a started game. Either seated player may
// restart; no history is written.
func (s *GameService) Restart(ctx context.Context, player Player, gameID uuid.UUID, expectedVersion *int64) (*models.Game, error) {
	var game *models.Game
	err := s.db.Transaction(func(tx *database.Database) error {
		g, err := tx.GetGame(gameID)
		if err != nil {
			return gameLookupErr(err)
		}
		if expectedVersion != nil && *expectedVersion != g.Version {
			return ErrVersionConflict
		}
		if !g.Plays(player.ID, tictactoe.X) && !g.Plays(player.ID, tictactoe.O) {
			return ErrNotAPlayer
		}

		state, err := g.State().Restart()
		if err != nil {
			return fmt.Errorf("%w: %w", ErrMoveRejected, err)
		}
		g.SetState(state)

		if err := tx.SaveGameIfVersion(g, g.Version); err != nil {
			return casErr(err)
		}
		game = g
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publisher.Updated(ctx, models.TableGames, game.RoomCode, game)
	return game, nil
}

// CurrentGame returns the newest game of a room.
func (s *GameService) CurrentGame(code string) (*models.Game, error) {
	code, err := roomcode.Parse(code)
	if err != nil {
		return nil, err
	}
	g, err := s.db.LatestGame(code)
	if err != nil {
		return nil, gameLookupErr(err)
	}
	return g, nil
}

func (s *GameService) History(code string) ([]models.GameHistory, error) {
	code, err := roomcode.Parse(code)
	if err != nil {
		return nil, err
	}
	return s.db.GetRoomHistory(code)
}

func gameLookupErr(err error) error {
	if errors.Is(err, database.ErrNotFound) {
		return ErrGameNotFound
	}
	return err
}

func casErr(err error) error {
	if errors.Is(err, database.ErrStaleVersion) {
		return ErrVersionConflict
	}
	return err
}
