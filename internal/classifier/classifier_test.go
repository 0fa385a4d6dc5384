package classifier

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vedexpert/internal"
)

func descriptor(name, material, function, origin string) internal.ProductDescriptor {
	return internal.ProductDescriptor{Name: name, Material: material, Function: function, OriginCountry: origin}
}

func TestClassifyCoffeeMachine(t *testing.T) {
	c := New()
	res := c.Classify(descriptor("кофемашина", "металл, пластик, электроника", "нагрев воды и приготовление кофе", "IT"))
	assert.Equal(t, "8516710000", res.Code)
	assert.Equal(t, "Приборы электронагревательные для приготовления кофе или чая", res.Description)
	assert.Equal(t, "8.5%", res.DutyRate)
	assert.Equal(t, "20%", res.VATRate)
	assert.Equal(t, Confidence, res.Confidence)
	assert.False(t, res.NeedsReview)
	assert.Contains(t, res.Documents, "Протокол испытаний")
	assert.Contains(t, res.Documents, "Таможенная декларация")
	assert.Contains(t, res.Documents, originDocument)

	manual := c.Classify(descriptor("кофеварка гейзерная", "алюминий", "приготовление кофе", "IT"))
	assert.Equal(t, "8419812000", manual.Code)
	assert.Equal(t, "0%", manual.DutyRate)
}

func TestClassifyCategories(t *testing.T) {
	c := New()
	cases := []struct {
		d    internal.ProductDescriptor
		code string
	}{
		{descriptor("смартфон", "", "", "CN"), "8517130000"},
		{descriptor("ноутбук", "", "", "CN"), "8471300000"},
		{descriptor("компьютер", "", "обработка данных", "CN"), "8471410000"},
		{descriptor("мужская куртка", "текстиль синтетический", "", "CN"), "6201400000"},
		{descriptor("женское пальто", "шерсть", "", "CN"), "6202200000"},
		{descriptor("ботинки", "кожа натуральная, резина", "", "CN"), "6403990000"},
		{descriptor("кроссовки", "текстиль, резина", "", "VN"), "6404199000"},
		{descriptor("электромобиль", "металл", "", "US"), "8703800002"},
		{descriptor("автомобиль", "металл", "перевозка пассажиров", "DE"), "8703231981"},
		{descriptor("духи", "", "", "FR"), "3303001000"},
		{descriptor("шампунь", "", "", "FR"), "3305100000"},
		{descriptor("шоколад", "", "", "CH"), "1806329000"},
		{descriptor("печенье", "", "", "PL"), "1905319900"},
		{descriptor("игристое вино", "", "", "IT"), "2204109800"},
		{descriptor("коньяк", "", "", "AM"), "2208201200"},
		{descriptor("диван", "дерево, текстиль", "", "BY"), "9401610000"},
		{descriptor("стол", "металл", "", "CN"), "9403200009"},
		{descriptor("книга", "бумага", "", "CN"), "4901990000"},
		{descriptor("конструктор", "пластик", "", "DK"), "9503003500"},
		{descriptor("настольная игра", "картон", "", "DE"), "9503009909"},
		{descriptor("велосипед", "", "", "CN"), "8712003000"},
		{descriptor("смарт-часы", "", "", "CN"), "8517620009"},
		{descriptor("часы", "золото", "", "CH"), "9101110000"},
		{descriptor("кольцо", "серебро", "", "TR"), "7113110000"},
		{descriptor("стиральный порошок", "", "стирка белья", "DE"), "3402209000"},
	}
	for _, tc := range cases {
		res := c.Classify(tc.d)
		assert.Equal(t, tc.code, res.Code, tc.d.Name)
		assert.False(t, res.NeedsReview, tc.d.Name)
	}
}

func TestClassifyClothingNeedsGender(t *testing.T) {
	res := New().Classify(descriptor("куртка", "текстиль", "", "CN"))
	assert.Equal(t, FallbackCode, res.Code)
	assert.True(t, res.NeedsReview)
	assert.Equal(t, Confidence, res.Confidence)
}

func TestClassifyFallback(t *testing.T) {
	res := New().Classify(descriptor("квантовый флюксатор", "", "", ""))
	assert.Equal(t, FallbackCode, res.Code)
	assert.Equal(t, FallbackCategory, res.Category)
	assert.True(t, res.NeedsReview)
	assert.Equal(t, "20%", res.VATRate)
	assert.Contains(t, res.Documents, "Инвойс (счет-фактура)")
	assert.Contains(t, res.Reasoning, "нужна проверка эксперта")
}

func TestClassifyOriginDocument(t *testing.T) {
	c := New()
	for _, origin := range []string{"BY", "KZ", "AM", "KG", "RU", "kz"} {
		res := c.Classify(descriptor("смартфон", "", "", origin))
		assert.NotContains(t, res.Documents, originDocument, origin)
	}
	res := c.Classify(descriptor("смартфон", "", "", "CN"))
	assert.Contains(t, res.Documents, originDocument)
}

func TestClassifyIsDeterministic(t *testing.T) {
	c := New()
	d := descriptor("мужская куртка", "хлопок", "защита от холода", "TR")
	assert.Equal(t, c.Classify(d), c.Classify(d))
}

func TestClassifyExclusions(t *testing.T) {
	c := New()
	assert.NotEqual(t, "8517130000", c.Classify(descriptor("автомобильный держатель", "", "", "CN")).Code)
	assert.Equal(t, FallbackCode, c.Classify(descriptor("джинсы", "", "", "CN")).Code)
	assert.Equal(t, FallbackCode, c.Classify(descriptor("виноград", "", "", "CN")).Code)
}

func TestClassifyToyLookalikes(t *testing.T) {
	c := New()
	assert.Equal(t, "9503009909", c.Classify(descriptor("игрушечный пистолет", "пластик", "", "CN")).Code)
	assert.Equal(t, "9503009909", c.Classify(descriptor("игрушечный стол для кукол", "пластик", "", "CN")).Code)
	assert.Equal(t, "9503009909", c.Classify(descriptor("игрушечный автомобиль", "металл", "", "CN")).Code)
	assert.Equal(t, FallbackCode, c.Classify(descriptor("пистолет для герметика", "металл", "", "CN")).Code)
	assert.Equal(t, "9403600009", c.Classify(descriptor("письменный стол", "дерево", "", "CN")).Code)
}

func TestCustomRulesRunAfterBuiltins(t *testing.T) {
	rules, err := ParseRules(`
[[rule]]
name = "tea"
when = 'name.contains("чай")'
code = "0902 30 000 0"
description = "Чай черный"
duty = "0%"
vat = "10%"
documents = ["Декларация соответствия ТР ТС 021/2011"]

[[rule]]
name = "kettle"
when = 'name.contains("чайник") && origin == "CN"'
code = "8516108000"
description = "Чайники электрические"
duty = "5%"
`)
	require.NoError(t, err)
	require.Len(t, rules, 2)

	c := New(rules...)
	res := c.Classify(descriptor("чай листовой", "", "", "IN"))
	assert.Equal(t, "0902300000", res.Code)
	assert.Equal(t, "custom:tea", res.Category)
	assert.Equal(t, "10%", res.VATRate)
	assert.Contains(t, res.Documents, "Декларация соответствия ТР ТС 021/2011")

	// built-in categories still win
	res = c.Classify(descriptor("смартфон с чаем", "", "", "CN"))
	assert.Equal(t, "8517130000", res.Code)

	assert.Equal(t, "custom:kettle", c.Categories()[len(c.Categories())-1])
}

func TestCompileRulesRejectsBadInput(t *testing.T) {
	_, err := ParseRules(`
[[rule]]
name = "broken"
when = 'name.contains('
code = "0902300000"
`)
	assert.Error(t, err)

	_, err = ParseRules(`
[[rule]]
name = "not-bool"
when = 'name + "x"'
code = "0902300000"
`)
	assert.Error(t, err)

	_, err = ParseRules(`
[[rule]]
name = "short"
when = 'true'
code = "0902"
`)
	assert.Error(t, err)
}

func TestLoadRulesFromFile(t *testing.T) {
	rules, err := LoadRules("")
	require.NoError(t, err)
	assert.Empty(t, rules)

	path := filepath.Join(t.TempDir(), "rules.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[[rule]]
name = "honey"
when = 'name.startsWith("мед")'
code = "0409000000"
description = "Мед натуральный"
duty = "15%"
`), 0o644))

	rules, err = LoadRules(path)
	require.NoError(t, err)
	res := New(rules...).Classify(descriptor("мед цветочный", "", "", "RU"))
	assert.Equal(t, "0409000000", res.Code)
	assert.NotContains(t, res.Documents, originDocument)

	_, err = LoadRules(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	c := New()
	d := descriptor("кофемашина", "металл", "нагрев воды и приготовление кофе", "IT")

	ok := c.Validate(d, "8516 71 000 0")
	assert.True(t, ok.Match)
	assert.Empty(t, ok.Issues)
	assert.Empty(t, ok.Recommendations)

	heading := c.Validate(d, "8516790000")
	assert.False(t, heading.Match)
	assert.Contains(t, heading.Issues[0], "8516")
	assert.Contains(t, heading.Recommendations, "Проверьте основное назначение товара")

	wrong := c.Validate(d, "123")
	assert.False(t, wrong.Match)
	assert.Len(t, wrong.Issues, 2)

	unknown := c.Validate(descriptor("нечто", "", "", "CN"), "8516710000")
	assert.False(t, unknown.Match)
	assert.Contains(t, unknown.Issues[0], "требуется экспертиза")
}
