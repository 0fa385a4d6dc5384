package repl

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vedexpert/internal"
	"vedexpert/internal/catalog"
	"vedexpert/internal/pipeline"
)

func newConsole() (*Console, *pipeline.Service, *bytes.Buffer) {
	cat := catalog.NewFromEntries([]internal.TariffEntry{
		{Code: "8516710000", Name: "Приборы электронагревательные для приготовления кофе или чая", Group: "85 Электрические машины", Duties: map[string]float64{"base": 8.5}, Certification: []string{"Декларация ЕАЭС"}},
		{Code: "9011800000", Name: "Микроскопы оптические прочие", Group: "90 Инструменты"},
		{Code: "9011100000", Name: "Микроскопы стереоскопические", Group: "90 Инструменты"},
	})
	svc := pipeline.NewService(cat, nil, nil, nil, nil)
	var out bytes.Buffer
	return New(svc, nil, "", &out), svc, &out
}

func TestHandleClassifiesFreeText(t *testing.T) {
	c, svc, out := newConsole()
	require.True(t, c.Handle(context.Background(), "кофемашина из Италии за 25000 руб"))
	assert.Contains(t, out.String(), "8516710000")
	assert.Contains(t, out.String(), "35050.00 руб")
	assert.Equal(t, 1, svc.Stats().TotalQueries)

	out.Reset()
	c.Handle(context.Background(), "кофемашина из Италии за 25000 руб")
	assert.Contains(t, out.String(), "(из кэша)")
}

func TestHandleNotClassifiedShowsCandidates(t *testing.T) {
	c, _, out := newConsole()
	c.Handle(context.Background(), "микроскоп лабораторный")
	assert.Contains(t, out.String(), "Похожие позиции")
	assert.Contains(t, out.String(), "9011")
}

func TestHandleCommands(t *testing.T) {
	ctx := context.Background()
	c, svc, out := newConsole()

	c.Handle(ctx, "/code 8516710000")
	assert.Contains(t, out.String(), "Приборы электронагревательные")
	assert.Contains(t, out.String(), "8.5%")
	assert.Contains(t, out.String(), "Декларация ЕАЭС")

	out.Reset()
	c.Handle(ctx, "/code 0000000000")
	assert.Contains(t, out.String(), "Код не найден")

	out.Reset()
	c.Handle(ctx, "/code")
	assert.Contains(t, out.String(), "Использование")

	out.Reset()
	c.Handle(ctx, "/search микроскопы")
	assert.Contains(t, out.String(), "Найдено: 2")

	out.Reset()
	c.Handle(ctx, "/search я")
	assert.Contains(t, out.String(), "Использование")

	c.Handle(ctx, "кофемашина из Италии")
	require.Equal(t, 1, svc.Stats().CacheSize)
	out.Reset()
	c.Handle(ctx, "/stats")
	assert.Contains(t, out.String(), "Запросов: 1")
	assert.Contains(t, out.String(), "8516710000")

	c.Handle(ctx, "/clear")
	assert.Equal(t, 0, svc.Stats().CacheSize)

	out.Reset()
	c.Handle(ctx, "/help")
	assert.Contains(t, out.String(), "/search")

	out.Reset()
	assert.True(t, c.Handle(ctx, "/unknown"))
	assert.Contains(t, out.String(), "неизвестная команда /unknown")

	assert.False(t, c.Handle(ctx, "/quit"))
	assert.False(t, c.Handle(ctx, "/EXIT"))
}

func TestCompleteCommand(t *testing.T) {
	assert.Equal(t, []string{"/search ", "/stats"}, completeCommand("/s"))
	assert.Nil(t, completeCommand("кофе"))
	assert.Len(t, completeCommand("/"), 6)
}
