package query

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCoffeeMachineFromItaly(t *testing.T) {
	p := NewInterpreter("", 0)
	d, ok := p.Parse("кофемашина DeLonghi из Италии за 25000 рублей")
	require.True(t, ok)
	assert.Equal(t, "кофемашина", d.Name)
	assert.Equal(t, "IT", d.OriginCountry)
	assert.True(t, d.DeclaredValue.Equal(decimal.NewFromInt(25000)))
	assert.Equal(t, "RUB", d.Currency)
	assert.Contains(t, d.Function, "нагрев")
}

func TestParseBranches(t *testing.T) {
	p := NewInterpreter("CN", 10000)
	cases := []struct {
		text string
		name string
	}{
		{"смартфоны оптом", "смартфон"},
		{"iPhone 15 Pro Max", "смартфон"},
		{"MacBook Air M3", "ноутбук"},
		{"капсулы для эспрессо", "кофемашина"},
		{"LEGO Technic", "конструктор"},
		{"Tesla Model 3", "электромобиль"},
		{"игристое вино брют", "игристое вино"},
		{"смарт-часы с GPS", "смарт-часы"},
		{"мужская куртка зимняя", "мужская куртка"},
		{"пальто женское", "женское пальто"},
		{"куртка", "куртка"},
		{"пара кроссовок", "кроссовки"},
	}
	for _, tc := range cases {
		d, ok := p.Parse(tc.text)
		require.True(t, ok, tc.text)
		assert.Equal(t, tc.name, d.Name, tc.text)
	}
}

func TestParseFailsWithoutProduct(t *testing.T) {
	p := NewInterpreter("CN", 10000)
	_, ok := p.Parse("qwerty zxcv")
	assert.False(t, ok)
	_, ok = p.Parse("   ")
	assert.False(t, ok)
}

func TestParseCountry(t *testing.T) {
	p := NewInterpreter("CN", 10000)
	cases := []struct{ text, want string }{
		{"ноутбук из Японии", "JP"},
		{"корейский смартфон", "KR"},
		{"вино из Франции", "FR"},
		{"ботинки, Турция", "TR"},
		{"шоколад из Германии", "DE"},
		{"кроссовки Nike, Вьетнам", "VN"},
		{"автомобиль из США", "US"},
		{"мебель из Беларуси", "BY"},
		{"книга", "CN"},
		{"смартфон, страна: KR", "KR"},
		{"игрушка из Китая в Польшу", "CN"},
		{"индивидуальный тренажер", "CN"},
	}
	for _, tc := range cases {
		d, ok := p.Parse(tc.text)
		require.True(t, ok, tc.text)
		assert.Equal(t, tc.want, d.OriginCountry, tc.text)
	}
}

func TestParseDefaultCountryIsConfigurable(t *testing.T) {
	d, ok := NewInterpreter("de", 10000).Parse("книга")
	require.True(t, ok)
	assert.Equal(t, "DE", d.OriginCountry)
}

func TestParseValue(t *testing.T) {
	p := NewInterpreter("CN", 10000)
	cases := []struct {
		text     string
		value    int64
		currency string
	}{
		{"iphone за 120к", 120000, "RUB"},
		{"ноутбук 90 тыс. рублей", 90000, "RUB"},
		{"смартфон за 45 000 руб", 45000, "RUB"},
		{"кроссовки $150", 150, "USD"},
		{"часы за 300 долларов", 300, "USD"},
		{"вино 40 евро", 40, "EUR"},
		{"игрушка 200 юаней", 200, "CNY"},
		{"2 куртки за 5000 ₽", 5000, "RUB"},
	}
	for _, tc := range cases {
		d, ok := p.Parse(tc.text)
		require.True(t, ok, tc.text)
		assert.True(t, d.DeclaredValue.Equal(decimal.NewFromInt(tc.value)), "%s: got %s", tc.text, d.DeclaredValue)
		assert.Equal(t, tc.currency, d.Currency, tc.text)
	}
}

func TestParseFallsBackToProductDefaultValue(t *testing.T) {
	p := NewInterpreter("CN", 10000)
	d, ok := p.Parse("смартфон 5 кг")
	require.True(t, ok)
	assert.True(t, d.DeclaredValue.Equal(decimal.NewFromInt(60000)), d.DeclaredValue.String())
}

func TestParseMaterialHints(t *testing.T) {
	p := NewInterpreter("CN", 10000)
	d, ok := p.Parse("кожаные ботинки")
	require.True(t, ok)
	assert.Equal(t, "кожа натуральная", d.Material)

	d, ok = p.Parse("серебряное кольцо")
	require.True(t, ok)
	assert.Equal(t, "серебро", d.Material)

	d, ok = p.Parse("кофемашина")
	require.True(t, ok)
	assert.Equal(t, "металл, пластик, электроника", d.Material)
}

func TestContainsPhrase(t *testing.T) {
	assert.True(t, containsPhrase([]string{"a", "b", "c"}, []string{"b", "c"}))
	assert.False(t, containsPhrase([]string{"a", "c", "b"}, []string{"b", "c"}))
	assert.False(t, containsPhrase([]string{"a"}, nil))
}

func TestBrandAliasesMatchWholeTokens(t *testing.T) {
	p := NewInterpreter("CN", 10000)
	_, ok := p.Parse("nokia 3310")
	assert.False(t, ok)

	d, ok := p.Parse("iphone15 256gb")
	require.True(t, ok)
	assert.Equal(t, "смартфон", d.Name)

	d, ok = p.Parse("два телефона")
	require.True(t, ok)
	assert.Equal(t, "смартфон", d.Name)
}
