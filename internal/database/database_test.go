package database_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thereayou/lovenest/internal/database"
	"github.com/thereayou/lovenest/internal/database/dbtest"
	"github.com/thereayou/lovenest/internal/models"
	"github.com/thereayou/lovenest/pkg/tictactoe"
)

func TestChatMessagesAreRoomScopedAndOrdered(t *testing.T) {
	db := dbtest.New(t)
	user := uuid.New()

	for i, text := range []string{"first", "second", "third"} {
		msg := &models.ChatMessage{
			RoomCode:   "ABCDEF",
			UserID:     user,
			SenderName: "Pramita",
			Message:    text,
			CreatedAt:  time.Now().Add(time.Duration(i) * time.Second),
		}
		require.NoError(t, db.SaveChatMessage(msg))
		require.NotEqual(t, uuid.Nil, msg.ID)
	}
	require.NoError(t, db.SaveChatMessage(&models.ChatMessage{
		RoomCode: "OTHER1", UserID: user, SenderName: "x", Message: "elsewhere",
	}))

	msgs, err := db.GetRoomMessages("ABCDEF")
	require.NoError(t, err)
	require.Len(t, msgs, 3)
	assert.Equal(t, "first", msgs[0].Message)
	assert.Equal(t, "third", msgs[2].Message)

	deleted, err := db.DeleteChatMessage(msgs[1].ID)
	require.NoError(t, err)
	assert.Equal(t, "ABCDEF", deleted.RoomCode)

	_, err = db.DeleteChatMessage(msgs[1].ID)
	assert.ErrorIs(t, err, database.ErrNotFound)
}

func TestLetterDefaultsUpdateAndRead(t *testing.T) {
	db := dbtest.New(t)

	letter := &models.Letter{RoomCode: "ABCDEF", UserID: uuid.New(), Subject: "Hi", Content: "..."}
	require.NoError(t, db.SaveLetter(letter))

	letters, err := db.GetRoomLetters("ABCDEF")
	require.NoError(t, err)
	require.Len(t, letters, 1)
	assert.Equal(t, "Your Love", letters[0].FromName)
	assert.False(t, letters[0].Read)

	updated, err := db.UpdateLetter(letter.ID, map[string]any{"subject": "Hello"})
	require.NoError(t, err)
	assert.Equal(t, "Hello", updated.Subject)
	assert.Equal(t, "...", updated.Content)

	read, err := db.MarkLetterRead(letter.ID)
	require.NoError(t, err)
	assert.True(t, read.Read)
	require.NotNil(t, read.ReadAt)

	again, err := db.MarkLetterRead(letter.ID)
	require.NoError(t, err)
	assert.True(t, read.ReadAt.Equal(*again.ReadAt))

	_, err = db.UpdateLetter(uuid.New(), map[string]any{"subject": "x"})
	assert.ErrorIs(t, err, database.ErrNotFound)
}

func TestWishlistOrderingFilterAndToggle(t *testing.T) {
	db := dbtest.New(t)
	user := uuid.New()
	base := time.Now()

	add := func(title string, category models.WishCategory, offset time.Duration) *models.WishlistItem {
		item := &models.WishlistItem{
			RoomCode: "ABCDEF", UserID: user, CreatedByName: "P", Title: title,
			Category: category, CreatedAt: base.Add(offset),
		}
		require.NoError(t, db.SaveWishlistItem(item))
		return item
	}
	older := add("Paris", models.CategoryTravel, 0)
	add("Watch", models.CategoryGift, time.Second)
	newest := add("Picnic", models.CategoryDate, 2*time.Second)

	toggled, err := db.ToggleWishlistItem(newest.ID)
	require.NoError(t, err)
	assert.True(t, toggled.Completed)
	assert.NotNil(t, toggled.CompletedAt)

	items, err := db.GetRoomWishlist("ABCDEF", "")
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, "Watch", items[0].Title)
	assert.Equal(t, older.ID, items[1].ID)
	assert.Equal(t, newest.ID, items[2].ID)

	travel, err := db.GetRoomWishlist("ABCDEF", models.CategoryTravel)
	require.NoError(t, err)
	require.Len(t, travel, 1)
	assert.Equal(t, "Paris", travel[0].Title)

	back, err := db.ToggleWishlistItem(newest.ID)
	require.NoError(t, err)
	assert.False(t, back.Completed)
	assert.Nil(t, back.CompletedAt)
}

func TestBouquetFlowersPersist(t *testing.T) {
	db := dbtest.New(t)

	b := &models.Bouquet{
		RoomCode: "ABCDEF",
		SenderID: uuid.New(),
		Flowers:  models.Flowers{models.FlowerRose, models.FlowerCherry},
	}
	require.NoError(t, db.SaveBouquet(b))

	got, err := db.GetRoomBouquets("ABCDEF")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, models.Flowers{models.FlowerRose, models.FlowerCherry}, got[0].Flowers)
	assert.Equal(t, "Your Love", got[0].SenderName)
}

func TestMemoriesAndStoryOrdering(t *testing.T) {
	db := dbtest.New(t)
	user := uuid.New()

	for _, date := range []string{"2023-02-14", "2024-06-01", "2022-12-25"} {
		require.NoError(t, db.SaveMemory(&models.Memory{
			RoomCode: "ABCDEF", UserID: user, Title: date, MemoryDate: date, Emotion: "happy",
		}))
		require.NoError(t, db.SaveStoryEvent(&models.StoryEvent{
			UserID: user, EventDate: date, Title: date, Description: "d",
		}))
	}

	memories, err := db.GetRoomMemories("ABCDEF")
	require.NoError(t, err)
	require.Len(t, memories, 3)
	assert.Equal(t, "2024-06-01", memories[0].MemoryDate)
	assert.Equal(t, "2022-12-25", memories[2].MemoryDate)

	story, err := db.GetUserStory(user)
	require.NoError(t, err)
	require.Len(t, story, 3)
	assert.Equal(t, "2022-12-25", story[0].EventDate)

	others, err := db.GetUserStory(uuid.New())
	require.NoError(t, err)
	assert.Empty(t, others)
}

func TestUpsertProfile(t *testing.T) {
	db := dbtest.New(t)
	user := uuid.New()

	_, err := db.GetProfile(user)
	assert.ErrorIs(t, err, database.ErrNotFound)

	p, err := db.UpsertProfile(&models.Profile{UserID: user, FullName: "Pramita"})
	require.NoError(t, err)
	assert.Equal(t, "Pramita", p.FullName)

	avatar := "http://localhost/uploads/a.png"
	p2, err := db.UpsertProfile(&models.Profile{UserID: user, FullName: "Pramita D", AvatarURL: &avatar})
	require.NoError(t, err)
	assert.Equal(t, p.ID, p2.ID)
	assert.Equal(t, "Pramita D", p2.FullName)
	require.NotNil(t, p2.AvatarURL)
	assert.Equal(t, avatar, *p2.AvatarURL)
}

func newGame(t *testing.T, db *database.Database, code string) *models.Game {
	t.Helper()
	g := &models.Game{RoomCode: code, PlayerXID: uuid.New(), PlayerXName: "Pramita", Version: 1}
	g.SetState(tictactoe.New())
	require.NoError(t, db.CreateGame(g))
	return g
}

func TestSaveGameIfVersion(t *testing.T) {
	db := dbtest.New(t)
	g := newGame(t, db, "ABCDEF")

	state, err := g.State().Join()
	require.NoError(t, err)
	g.SetState(state)
	require.NoError(t, db.SaveGameIfVersion(g, 1))
	assert.Equal(t, int64(2), g.Version)

	stale := *g
	stale.Status = tictactoe.StatusFinished
	assert.ErrorIs(t, db.SaveGameIfVersion(&stale, 1), database.ErrStaleVersion)

	stored, err := db.GetGame(g.ID)
	require.NoError(t, err)
	assert.Equal(t, tictactoe.StatusPlaying, stored.Status)
	assert.Equal(t, int64(2), stored.Version)
	assert.Equal(t, tictactoe.Board{}, stored.BoardState)
}

func TestLatestGameAndRoomCodeInUse(t *testing.T) {
	db := dbtest.New(t)

	_, err := db.LatestGame("ABCDEF")
	assert.ErrorIs(t, err, database.ErrNotFound)

	inUse, err := db.RoomCodeInUse("ABCDEF")
	require.NoError(t, err)
	assert.False(t, inUse)

	newGame(t, db, "ABCDEF")
	time.Sleep(2 * time.Millisecond)
	second := newGame(t, db, "ABCDEF")

	err = db.Transaction(func(tx *database.Database) error {
		g, err := tx.LatestGameForUpdate("ABCDEF")
		require.NoError(t, err)
		assert.Equal(t, second.ID, g.ID)
		return nil
	})
	require.NoError(t, err)

	inUse, err = db.RoomCodeInUse("ABCDEF")
	require.NoError(t, err)
	assert.True(t, inUse)
}

func TestRoomActivity(t *testing.T) {
	db := dbtest.New(t)
	user := uuid.New()

	require.NoError(t, db.SaveChatMessage(&models.ChatMessage{RoomCode: "ABCDEF", UserID: user, SenderName: "a", Message: "hi"}))
	require.NoError(t, db.SaveChatMessage(&models.ChatMessage{RoomCode: "ABCDEF", UserID: user, SenderName: "a", Message: "hey"}))
	require.NoError(t, db.SaveLetter(&models.Letter{RoomCode: "ABCDEF", UserID: user, Subject: "s", Content: "c"}))
	newGame(t, db, "ZZZZZZ")

	counts, err := db.RoomActivity("ABCDEF")
	require.NoError(t, err)
	assert.Equal(t, int64(2), counts[models.TableChatMessages])
	assert.Equal(t, int64(1), counts[models.TableLetters])
	assert.Equal(t, int64(0), counts[models.TableGames])
	assert.Len(t, counts, len(models.RoomTables))
}

func TestTransactionRollsBack(t *testing.T) {
	db := dbtest.New(t)

	err := db.Transaction(func(tx *database.Database) error {
		require.NoError(t, tx.SaveChatMessage(&models.ChatMessage{RoomCode: "ABCDEF", UserID: uuid.New(), SenderName: "a", Message: "gone"}))
		return database.ErrStaleVersion
	})
	assert.ErrorIs(t, err, database.ErrStaleVersion)

	msgs, err := db.GetRoomMessages("ABCDEF")
	require.NoError(t, err)
	assert.Empty(t, msgs)
}
