package classifier

import (
	"vedexpert/internal/util"
)

// variant is one outcome of a category. Each non-empty keyword set must
// match its field; a variant with no sets always matches.
type variant struct {
	name, material, function []string

	code        string
	description string
	duty        string
	vat         string
	documents   []string
}

func (v variant) matches(f Fields) bool {
	if len(v.name) > 0 && !util.ContainsAny(f.Name, v.name...) {
		return false
	}
	if len(v.material) > 0 && !util.ContainsAny(f.Material, v.material...) {
		return false
	}
	if len(v.function) > 0 && !util.ContainsAny(f.Function, v.function...) {
		return false
	}
	return true
}

// category is a built-in rule: name keywords select it (or, secondarily,
// material/function keywords), variants pick the code.
type category struct {
	id        string
	keywords  []string
	secondary []string
	require   []string
	exclude   []string
	variants  []variant
	documents []string
}

func (c category) matches(f Fields) bool {
	if len(c.exclude) > 0 && util.ContainsAny(f.Name, c.exclude...) {
		return false
	}
	if len(c.require) > 0 && !util.ContainsAny(f.Name, c.require...) {
		return false
	}
	if util.ContainsAny(f.Name, c.keywords...) {
		return true
	}
	return len(c.secondary) > 0 && (util.ContainsAny(f.Material, c.secondary...) || util.ContainsAny(f.Function, c.secondary...))
}

func (c category) resolve(f Fields) Resolution {
	for _, v := range c.variants {
		if !v.matches(f) {
			continue
		}
		docs := append(append([]string{}, c.documents...), v.documents...)
		return Resolution{Code: v.code, Description: v.description, DutyRate: v.duty, VATRate: v.vat, Documents: docs}
	}
	return Resolution{}
}

func (c category) rule() Rule {
	return Rule{Category: c.id, Match: c.matches, Resolve: c.resolve}
}

const (
	docTRTS004 = "Декларация соответствия ТР ТС 004/2011"
	docEMC     = "Декларация соответствия ТР ТС 020/2011 (ЭМС)"
	docFSB     = "Нотификация ФСБ"
	docTRTS017 = "Декларация соответствия ТР ТС 017/2011"
	docMarking = "Маркировка средствами идентификации (Честный знак)"
	docAlcohol = "Декларация соответствия ТР ЕАЭС 047/2018"
	docExcise  = "Федеральные специальные (акцизные) марки"
	docEGAIS   = "Лицензия на оборот алкогольной продукции (ЕГАИС)"
	docFood    = "Декларация соответствия ТР ТС 021/2011"
	docFoodTag = "Маркировка по ТР ТС 022/2011"
)

var clothingKeywords = []string{"куртк", "пальто", "пуховик", "плащ", "ветровк", "парка", "полупальто"}

// builtinCategories are evaluated in order; the first match wins.
var builtinCategories = []category{
	{
		id:       "coffee_machines",
		keywords: []string{"кофемашин", "кофеварк", "эспрессо"},
		variants: []variant{
			{function: []string{"нагрев"}, code: "8516710000", description: "Приборы электронагревательные для приготовления кофе или чая", duty: "8.5%", vat: "20%", documents: []string{docEMC}},
			{code: "8419812000", description: "Кофеварки и другие приспособления для приготовления кофе", duty: "0%", vat: "20%"},
		},
		documents: []string{docTRTS004, "Сертификат EAC", "Протокол испытаний"},
	},
	{
		id:       "phones",
		keywords: []string{"смартфон", "телефон", "iphone", "айфон", "мобильн"},
		exclude:  []string{"автомобильн"},
		variants: []variant{
			{code: "8517130000", description: "Смартфоны", duty: "0%", vat: "20%"},
		},
		documents: []string{docFSB, "Декларация соответствия ТР ЕАЭС 037/2016", docEMC},
	},
	{
		id:       "computers",
		keywords: []string{"ноутбук", "компьютер", "планшет", "макбук", "macbook", "laptop", "лэптоп", "моноблок"},
		variants: []variant{
			{name: []string{"ноутбук", "планшет", "макбук", "macbook", "laptop", "лэптоп"}, code: "8471300000", description: "Машины вычислительные портативные массой не более 10 кг", duty: "0%", vat: "20%"},
			{function: []string{"портатив"}, code: "8471300000", description: "Машины вычислительные портативные массой не более 10 кг", duty: "0%", vat: "20%"},
			{code: "8471410000", description: "Машины вычислительные прочие, содержащие в одном корпусе процессор и устройства ввода-вывода", duty: "0%", vat: "20%"},
		},
		documents: []string{docFSB, docTRTS004, docEMC},
	},
	{
		id:       "mens_outerwear",
		keywords: clothingKeywords,
		require:  []string{"мужск"},
		variants: []variant{
			{material: []string{"шерст"}, code: "6201200000", description: "Пальто, куртки и аналогичные изделия мужские из шерстяной пряжи", duty: "10%", vat: "20%"},
			{material: []string{"хлоп"}, code: "6201300000", description: "Пальто, куртки и аналогичные изделия мужские из хлопчатобумажной пряжи", duty: "10%", vat: "20%"},
			{material: []string{"синтет", "химическ"}, code: "6201400000", description: "Пальто, куртки и аналогичные изделия мужские из химических нитей", duty: "10%", vat: "20%"},
			{code: "6201900000", description: "Пальто, куртки и аналогичные изделия мужские из прочих текстильных материалов", duty: "10%", vat: "20%"},
		},
		documents: []string{docTRTS017, docMarking},
	},
	{
		id:       "womens_outerwear",
		keywords: clothingKeywords,
		require:  []string{"женск"},
		variants: []variant{
			{material: []string{"шерст"}, code: "6202200000", description: "Пальто, куртки и аналогичные изделия женские из шерстяной пряжи", duty: "10%", vat: "20%"},
			{material: []string{"хлоп"}, code: "6202300000", description: "Пальто, куртки и аналогичные изделия женские из хлопчатобумажной пряжи", duty: "10%", vat: "20%"},
			{material: []string{"синтет", "химическ"}, code: "6202400000", description: "Пальто, куртки и аналогичные изделия женские из химических нитей", duty: "10%", vat: "20%"},
			{code: "6202900000", description: "Пальто, куртки и аналогичные изделия женские из прочих текстильных материалов", duty: "10%", vat: "20%"},
		},
		documents: []string{docTRTS017, docMarking},
	},
	{
		id:       "footwear",
		keywords: []string{"обув", "кроссовк", "ботинк", "туфл", "сапог", "кеды", "сандал", "тапоч"},
		variants: []variant{
			{material: []string{"кож"}, code: "6403990000", description: "Обувь с верхом из натуральной кожи прочая", duty: "10%", vat: "20%"},
			{material: []string{"текстил"}, code: "6404199000", description: "Обувь с верхом из текстильных материалов прочая", duty: "10%", vat: "20%"},
			{code: "6402999800", description: "Обувь с подошвой и верхом из резины или пластмассы прочая", duty: "10%", vat: "20%"},
		},
		documents: []string{docTRTS017, docMarking},
	},
	{
		id:       "passenger_vehicles",
		keywords: []string{"автомобил", "электромобил", "легков", "tesla"},
		exclude:  []string{"шин", "запчаст", "аксессуар", "держател", "коврик", "автомобильн", "игрушечн"},
		variants: []variant{
			{name: []string{"электр", "tesla"}, code: "8703800002", description: "Автомобили легковые только с электрическим двигателем", duty: "15%", vat: "20%"},
			{function: []string{"электр"}, code: "8703800002", description: "Автомобили легковые только с электрическим двигателем", duty: "15%", vat: "20%"},
			{code: "8703231981", description: "Автомобили легковые с бензиновым двигателем объемом 1500-3000 см3", duty: "15%", vat: "20%"},
		},
		documents: []string{"Электронный паспорт транспортного средства (ЭПТС)", "ОТТС или СБКТС", "Расчет утилизационного сбора"},
	},
	{
		id:        "cosmetics",
		keywords:  []string{"духи", "парфюм", "туалетная вода", "крем", "шампун", "помад", "тушь", "космет", "лосьон"},
		secondary: []string{"парфюмер", "уход за кожей", "уход за волосами", "косметик"},
		variants: []variant{
			{name: []string{"духи", "парфюм", "туалетная вода"}, code: "3303001000", description: "Духи", duty: "6.5%", vat: "20%"},
			{name: []string{"шампун"}, code: "3305100000", description: "Шампуни", duty: "6.5%", vat: "20%"},
			{name: []string{"помад"}, code: "3304100000", description: "Средства для макияжа губ", duty: "6.5%", vat: "20%"},
			{code: "3304990000", description: "Косметические средства для ухода за кожей прочие", duty: "6.5%", vat: "20%"},
		},
		documents: []string{"Декларация соответствия ТР ТС 009/2011", "Свидетельство о государственной регистрации (при необходимости)"},
	},
	{
		id:       "chocolate",
		keywords: []string{"шоколад"},
		variants: []variant{
			{code: "1806329000", description: "Шоколад и прочие готовые пищевые продукты, содержащие какао, в брикетах", duty: "10%", vat: "20%"},
		},
		documents: []string{docFood, docFoodTag},
	},
	{
		id:       "cookies",
		keywords: []string{"печень", "печенье", "крекер", "вафл"},
		variants: []variant{
			{code: "1905319900", description: "Печенье сладкое прочее", duty: "8%", vat: "20%"},
		},
		documents: []string{docFood, docFoodTag},
	},
	{
		id:       "wine",
		keywords: []string{"вино", "вина", "шампанск", "игрист"},
		exclude:  []string{"виноград", "винов"},
		variants: []variant{
			{name: []string{"игрист", "шампанск"}, code: "2204109800", description: "Вина игристые прочие", duty: "12.5%", vat: "20%"},
			{code: "2204219800", description: "Вина виноградные натуральные в сосудах емкостью 2 л или менее", duty: "12.5%", vat: "20%"},
		},
		documents: []string{docAlcohol, docExcise, docEGAIS},
	},
	{
		id:       "spirits",
		keywords: []string{"виски", "водк", "коньяк", "бренди", "джин", "текил", "ликер"},
		exclude:  []string{"джинс"},
		variants: []variant{
			{name: []string{"коньяк", "бренди"}, code: "2208201200", description: "Коньяк в сосудах емкостью 2 л или менее", duty: "12.5%", vat: "20%"},
			{name: []string{"виски"}, code: "2208303000", description: "Виски односолодовый", duty: "12.5%", vat: "20%"},
			{name: []string{"водк"}, code: "2208601100", description: "Водка крепостью 45,4 об.% или менее", duty: "12.5%", vat: "20%"},
			{code: "2208909900", description: "Спиртные напитки прочие", duty: "12.5%", vat: "20%"},
		},
		documents: []string{docAlcohol, docExcise, docEGAIS},
	},
	{
		id:       "furniture",
		keywords: []string{"мебел", "диван", "стол", "стул", "кресл", "шкаф", "кроват", "комод"},
		exclude:  []string{"настольн", "столов", "автокресл", "пистолет", "игрушечн"},
		variants: []variant{
			{name: []string{"диван", "кресл", "стул"}, material: []string{"дерев"}, code: "9401610000", description: "Мебель для сидения с деревянным каркасом, обитая", duty: "10%", vat: "20%"},
			{name: []string{"диван", "кресл", "стул"}, code: "9401710009", description: "Мебель для сидения с металлическим каркасом, обитая, прочая", duty: "10%", vat: "20%"},
			{material: []string{"металл"}, code: "9403200009", description: "Мебель металлическая прочая", duty: "10%", vat: "20%"},
			{code: "9403600009", description: "Мебель деревянная прочая", duty: "10%", vat: "20%"},
		},
		documents: []string{"Декларация соответствия ТР ТС 025/2012"},
	},
	{
		id:        "books",
		keywords:  []string{"книг", "учебник", "словар", "энциклопед", "брошюр"},
		secondary: []string{"печатное издание"},
		variants: []variant{
			{code: "4901990000", description: "Книги, брошюры и аналогичные печатные материалы прочие", duty: "0%", vat: "10%"},
		},
	},
	{
		id:       "toys",
		keywords: []string{"игрушк", "игрушечн", "конструктор", "lego", "кукл", "пазл", "настольная игра", "настольные игры"},
		variants: []variant{
			{name: []string{"конструктор", "lego"}, code: "9503003500", description: "Наборы для конструирования прочие, из пластмасс", duty: "5%", vat: "10%"},
			{code: "9503009909", description: "Игрушки прочие", duty: "5%", vat: "10%"},
		},
		documents: []string{"Сертификат соответствия ТР ТС 008/2011"},
	},
	{
		id:        "sporting_goods",
		keywords:  []string{"велосипед", "тренажер", "мяч", "спорт", "лыж", "гантел", "самокат"},
		secondary: []string{"спортивн"},
		exclude:   []string{"часы"},
		variants: []variant{
			{name: []string{"велосипед"}, code: "8712003000", description: "Велосипеды с шариковыми подшипниками", duty: "10%", vat: "20%"},
			{name: []string{"мяч"}, code: "9506629000", description: "Мячи надувные прочие", duty: "5%", vat: "20%"},
			{name: []string{"тренажер"}, code: "9506911000", description: "Тренажеры с регулируемым механизмом нагрузки", duty: "5%", vat: "20%"},
			{code: "9506990000", description: "Инвентарь спортивный прочий", duty: "5%", vat: "20%"},
		},
		documents: []string{"Декларация соответствия (для детского инвентаря ТР ТС 007/2011)"},
	},
	{
		id:       "watches",
		keywords: []string{"часы", "смарт-час", "smartwatch", "apple watch"},
		variants: []variant{
			{name: []string{"смарт", "smart", "watch"}, code: "8517620009", description: "Аппаратура для приема, преобразования и передачи данных (смарт-часы)", duty: "0%", vat: "20%", documents: []string{docFSB, docEMC}},
			{material: []string{"золот", "серебр", "платин"}, code: "9101110000", description: "Часы наручные с корпусом из драгоценного металла", duty: "10%", vat: "20%"},
			{code: "9102110000", description: "Часы наручные только с механической индикацией", duty: "10%", vat: "20%"},
		},
	},
	{
		id:       "jewelry",
		keywords: []string{"кольц", "серьг", "браслет", "ожерель", "цепочк", "подвеск", "ювелир", "бижутер"},
		variants: []variant{
			{name: []string{"бижутер"}, code: "7117190000", description: "Бижутерия из недрагоценных металлов прочая", duty: "10%", vat: "20%"},
			{material: []string{"золот"}, code: "7113191000", description: "Ювелирные изделия из золота", duty: "10%", vat: "20%"},
			{material: []string{"серебр"}, code: "7113110000", description: "Ювелирные изделия из серебра", duty: "10%", vat: "20%"},
			{code: "7117190000", description: "Бижутерия из недрагоценных металлов прочая", duty: "10%", vat: "20%"},
		},
		documents: []string{"Регистрация в ГИИС ДМДК", "Клеймение пробирной палатой (для драгоценных металлов)"},
	},
	{
		id:        "household_chemicals",
		keywords:  []string{"порош", "моющ", "чистящ", "бытовая химия", "отбеливател", "гель для стирки"},
		secondary: []string{"стирк", "чистка поверхностей"},
		variants: []variant{
			{name: []string{"порош", "стирк"}, code: "3402209000", description: "Средства моющие и чистящие, расфасованные для розничной продажи", duty: "6.5%", vat: "20%"},
			{function: []string{"стирк"}, code: "3402209000", description: "Средства моющие и чистящие, расфасованные для розничной продажи", duty: "6.5%", vat: "20%"},
			{code: "3402909000", description: "Средства моющие и чистящие прочие", duty: "6.5%", vat: "20%"},
		},
		documents: []string{"Свидетельство о государственной регистрации"},
	},
}

func builtinRules() []Rule {
	out := make([]Rule, len(builtinCategories))
	for i, c := range builtinCategories {
		out[i] = c.rule()
	}
	return out
}
