package models

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thereayou/lovenest/pkg/tictactoe"
)

func TestFlowersValidate(t *testing.T) {
	assert.ErrorIs(t, Flowers{}.Validate(), ErrNoFlowers)
	assert.ErrorIs(t, Flowers{"orchid"}.Validate(), ErrUnknownFlower)

	full := make(Flowers, MaxFlowersInBouquet)
	for i := range full {
		full[i] = FlowerRose
	}
	assert.NoError(t, full.Validate())
	assert.ErrorIs(t, append(full, FlowerDaisy).Validate(), ErrTooManyFlowers)
}

func TestFlowersRoundTripThroughColumn(t *testing.T) {
	v, err := Flowers{FlowerRose, FlowerTulip}.Value()
	require.NoError(t, err)
	assert.Equal(t, `["rose","tulip"]`, v)

	var f Flowers
	require.NoError(t, f.Scan([]byte(`["lily"]`)))
	assert.Equal(t, Flowers{FlowerLily}, f)
}

func TestNewGameHistory(t *testing.T) {
	o := "Subhadip"
	g := &Game{RoomCode: "ABCDEF", PlayerXName: "Pramita", PlayerOName: &o, Winner: tictactoe.ResultO}

	h := NewGameHistory(g)
	assert.Equal(t, "Subhadip Won", h.Result)
	require.NotNil(t, h.WinnerName)
	assert.Equal(t, "Subhadip", *h.WinnerName)

	g.Winner = tictactoe.ResultDraw
	h = NewGameHistory(g)
	assert.Equal(t, "Draw", h.Result)
	assert.Nil(t, h.WinnerName)

	g.PlayerOName = nil
	assert.Equal(t, "Unknown", NewGameHistory(g).PlayerOName)
}

func TestGamePlays(t *testing.T) {
	x, o := uuid.New(), uuid.New()
	g := &Game{PlayerXID: x}
	assert.True(t, g.Plays(x, tictactoe.X))
	assert.False(t, g.Plays(o, tictactoe.O))

	g.PlayerOID = &o
	assert.True(t, g.Plays(o, tictactoe.O))
	assert.False(t, g.Plays(o, tictactoe.X))
}

func TestIsRoomTable(t *testing.T) {
	assert.True(t, IsRoomTable(TableChatMessages))
	assert.True(t, IsRoomTable(TableGames))
	assert.False(t, IsRoomTable(TableStoryEvents))
	assert.False(t, IsRoomTable("users"))
}
