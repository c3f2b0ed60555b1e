package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dispatchbot/pkg/models"
)

func TestAutoRegisterByUsername(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.driver(t, "Иван Петров", "", 0)
	target := f.driver(t, "Пётр", "petr_driver", 0)

	bound, err := f.svc.Driver().AutoRegister(ctx, Sender{ChatID: 555, Username: "petr_driver", FirstName: "Иван"})
	require.NoError(t, err)
	require.NotNil(t, bound)
	assert.Equal(t, target.ID, bound.ID, "handle match beats first name")

	got, err := f.svc.Driver().GetByChatID(ctx, 555)
	require.NoError(t, err)
	assert.Equal(t, "Пётр", got.Name)
}

func TestAutoRegisterByFirstName(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	first := f.driver(t, "Иван Петров", "", 0)
	f.driver(t, "Иван Сидоров", "", 0)

	bound, err := f.svc.Driver().AutoRegister(ctx, Sender{ChatID: 777, Username: "ivan_p", FirstName: "Иван"})
	require.NoError(t, err)
	require.NotNil(t, bound)
	assert.Equal(t, first.ID, bound.ID, "oldest match wins")
	assert.Equal(t, int64(777), bound.ChatID())

	assert.True(t, f.gw.Contains(777, "Вы успешно зарегистрированы как: Иван Петров"))

	// next message from the same chat changes nothing
	again, err := f.svc.Driver().AutoRegister(ctx, Sender{ChatID: 777, Username: "ivan_p", FirstName: "Иван"})
	require.NoError(t, err)
	assert.Nil(t, again)
	assert.Len(t, f.gw.To(777), 1)
}

func TestAutoRegisterSkipsBoundDriver(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.driver(t, "Иван", "ivan", 1001)

	bound, err := f.svc.Driver().AutoRegister(ctx, Sender{ChatID: 2002, Username: "ivan", FirstName: "Иван"})
	require.NoError(t, err)
	assert.Nil(t, bound)

	_, err = f.svc.Driver().GetByChatID(ctx, 2002)
	assert.ErrorIs(t, err, ErrDriverNotFound)
	assert.Empty(t, f.gw.Calls())
}

func TestAutoRegisterNoMatch(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.driver(t, "Иван", "", 0)

	bound, err := f.svc.Driver().AutoRegister(ctx, Sender{ChatID: 3003, FirstName: "Алексей"})
	require.NoError(t, err)
	assert.Nil(t, bound)

	bound, err = f.svc.Driver().AutoRegister(ctx, Sender{ChatID: 3003})
	require.NoError(t, err)
	assert.Nil(t, bound)
	assert.Empty(t, f.gw.Calls())
}

func TestCreateDriverRequiresName(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Driver().Create(context.Background(), &models.Driver{Name: "  "})
	assert.ErrorIs(t, err, ErrNameRequired)
}
