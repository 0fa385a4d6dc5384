package query

// product is a known product name with the defaults used for fields the
// free text does not mention.
type product struct {
	Name            string
	Material        string
	Function        string
	ProcessingLevel string
	DefaultValue    int64
	// GenderForms holds the masculine and feminine adjective for clothing.
	GenderForms [2]string
}

const (
	levelFinished = "готовое изделие"
	levelFood     = "пищевой продукт"
	levelBeverage = "напиток"
)

// knownProducts is scanned in order; put specific names before general ones.
var knownProducts = []product{
	{Name: "кофемашина", Material: "металл, пластик, электроника", Function: "нагрев воды и приготовление кофе", ProcessingLevel: levelFinished, DefaultValue: 25000},
	{Name: "кофеварка", Material: "металл, пластик", Function: "приготовление кофе", ProcessingLevel: levelFinished, DefaultValue: 8000},
	{Name: "смартфон", Material: "металл, стекло, электроника", Function: "связь и передача данных", ProcessingLevel: levelFinished, DefaultValue: 60000},
	{Name: "ноутбук", Material: "металл, пластик, электроника", Function: "портативная обработка данных", ProcessingLevel: levelFinished, DefaultValue: 80000},
	{Name: "планшет", Material: "металл, стекло, электроника", Function: "портативная обработка данных", ProcessingLevel: levelFinished, DefaultValue: 40000},
	{Name: "компьютер", Material: "металл, пластик, электроника", Function: "обработка данных", ProcessingLevel: levelFinished, DefaultValue: 70000},
	{Name: "пуховик", Material: "текстиль синтетический, пух", Function: "защита от холода", ProcessingLevel: levelFinished, DefaultValue: 12000, GenderForms: [2]string{"мужской", "женский"}},
	{Name: "куртка", Material: "текстиль синтетический", Function: "защита от холода", ProcessingLevel: levelFinished, DefaultValue: 8000, GenderForms: [2]string{"мужская", "женская"}},
	{Name: "пальто", Material: "шерсть", Function: "защита от холода", ProcessingLevel: levelFinished, DefaultValue: 15000, GenderForms: [2]string{"мужское", "женское"}},
	{Name: "кроссовки", Material: "текстиль, резина", Function: "спортивная обувь", ProcessingLevel: levelFinished, DefaultValue: 7000},
	{Name: "ботинки", Material: "кожа натуральная, резина", Function: "обувь", ProcessingLevel: levelFinished, DefaultValue: 9000},
	{Name: "туфли", Material: "кожа натуральная", Function: "обувь", ProcessingLevel: levelFinished, DefaultValue: 8000},
	{Name: "электромобиль", Material: "металл, аккумулятор", Function: "перевозка пассажиров на электротяге", ProcessingLevel: levelFinished, DefaultValue: 3500000},
	{Name: "автомобиль", Material: "металл", Function: "перевозка пассажиров", ProcessingLevel: levelFinished, DefaultValue: 2500000},
	{Name: "духи", Material: "спиртовой раствор, ароматические вещества", Function: "парфюмерия", ProcessingLevel: levelFinished, DefaultValue: 7000},
	{Name: "шампунь", Material: "поверхностно-активные вещества", Function: "уход за волосами", ProcessingLevel: levelFinished, DefaultValue: 800},
	{Name: "помада", Material: "воск, пигменты", Function: "декоративная косметика", ProcessingLevel: levelFinished, DefaultValue: 1500},
	{Name: "крем", Material: "масла, эмульгаторы", Function: "уход за кожей", ProcessingLevel: levelFinished, DefaultValue: 2000},
	{Name: "шоколад", Material: "какао, сахар", Function: "пищевой продукт", ProcessingLevel: levelFood, DefaultValue: 500},
	{Name: "печенье", Material: "мука, сахар", Function: "пищевой продукт", ProcessingLevel: levelFood, DefaultValue: 300},
	{Name: "игристое вино", Material: "виноград", Function: "игристый алкогольный напиток", ProcessingLevel: levelBeverage, DefaultValue: 3000},
	{Name: "вино", Material: "виноград", Function: "алкогольный напиток", ProcessingLevel: levelBeverage, DefaultValue: 2000},
	{Name: "виски", Material: "зерновой дистиллят", Function: "крепкий алкогольный напиток", ProcessingLevel: levelBeverage, DefaultValue: 4000},
	{Name: "коньяк", Material: "виноградный дистиллят", Function: "крепкий алкогольный напиток", ProcessingLevel: levelBeverage, DefaultValue: 3000},
	{Name: "водка", Material: "этиловый спирт", Function: "крепкий алкогольный напиток", ProcessingLevel: levelBeverage, DefaultValue: 1000},
	{Name: "диван", Material: "дерево, текстиль", Function: "мебель для сидения", ProcessingLevel: levelFinished, DefaultValue: 40000},
	{Name: "кресло", Material: "дерево, текстиль", Function: "мебель для сидения", ProcessingLevel: levelFinished, DefaultValue: 15000},
	{Name: "стул", Material: "дерево", Function: "мебель для сидения", ProcessingLevel: levelFinished, DefaultValue: 4000},
	{Name: "стол", Material: "дерево", Function: "мебель", ProcessingLevel: levelFinished, DefaultValue: 12000},
	{Name: "шкаф", Material: "дерево", Function: "мебель для хранения", ProcessingLevel: levelFinished, DefaultValue: 20000},
	{Name: "мебель", Material: "дерево", Function: "мебель", ProcessingLevel: levelFinished, DefaultValue: 20000},
	{Name: "книга", Material: "бумага", Function: "печатное издание", ProcessingLevel: levelFinished, DefaultValue: 1000},
	{Name: "конструктор", Material: "пластик", Function: "детская игра", ProcessingLevel: levelFinished, DefaultValue: 5000},
	{Name: "игрушка", Material: "пластик", Function: "детская игра", ProcessingLevel: levelFinished, DefaultValue: 3000},
	{Name: "велосипед", Material: "металл", Function: "спорт и передвижение", ProcessingLevel: levelFinished, DefaultValue: 30000},
	{Name: "тренажер", Material: "металл", Function: "спортивные тренировки", ProcessingLevel: levelFinished, DefaultValue: 40000},
	{Name: "мяч", Material: "резина, кожа искусственная", Function: "спортивные игры", ProcessingLevel: levelFinished, DefaultValue: 2000},
	{Name: "смарт-часы", Material: "металл, пластик, электроника", Function: "связь и измерение времени", ProcessingLevel: levelFinished, DefaultValue: 20000},
	{Name: "часы", Material: "металл, стекло", Function: "измерение времени", ProcessingLevel: levelFinished, DefaultValue: 15000},
	{Name: "кольцо", Material: "золото", Function: "украшение", ProcessingLevel: levelFinished, DefaultValue: 30000},
	{Name: "серьги", Material: "золото", Function: "украшение", ProcessingLevel: levelFinished, DefaultValue: 25000},
	{Name: "стиральный порошок", Material: "поверхностно-активные вещества", Function: "стирка белья", ProcessingLevel: levelFinished, DefaultValue: 700},
	{Name: "моющее средство", Material: "поверхностно-активные вещества", Function: "чистка поверхностей", ProcessingLevel: levelFinished, DefaultValue: 400},
}

type synonym struct {
	Alias   string
	Product string
}

// brandSynonyms map brands and alternate names to a known product.
// Matched as substrings of the normalized text, in order.
var brandSynonyms = []synonym{
	{"apple watch", "смарт-часы"},
	{"smartwatch", "смарт-часы"},
	{"iphone", "смартфон"},
	{"айфон", "смартфон"},
	{"galaxy", "смартфон"},
	{"xiaomi", "смартфон"},
	{"redmi", "смартфон"},
	{"pixel", "смартфон"},
	{"телефон", "смартфон"},
	{"mobile phone", "смартфон"},
	{"smartphone", "смартфон"},
	{"macbook", "ноутбук"},
	{"макбук", "ноутбук"},
	{"thinkpad", "ноутбук"},
	{"laptop", "ноутбук"},
	{"лэптоп", "ноутбук"},
	{"ipad", "планшет"},
	{"delonghi", "кофемашина"},
	{"де лонги", "кофемашина"},
	{"nespresso", "кофемашина"},
	{"saeco", "кофемашина"},
	{"jura", "кофемашина"},
	{"lego", "конструктор"},
	{"лего", "конструктор"},
	{"nike", "кроссовки"},
	{"adidas", "кроссовки"},
	{"puma", "кроссовки"},
	{"reebok", "кроссовки"},
	{"new balance", "кроссовки"},
	{"кеды", "кроссовки"},
	{"кроссовок", "кроссовки"},
	{"ботинок", "ботинки"},
	{"туфел", "туфли"},
	{"серег", "серьги"},
	{"игрушек", "игрушка"},
	{"tesla", "электромобиль"},
	{"тесла", "электромобиль"},
	{"toyota", "автомобиль"},
	{"тойота", "автомобиль"},
	{"bmw", "автомобиль"},
	{"mercedes", "автомобиль"},
	{"audi", "автомобиль"},
	{"volkswagen", "автомобиль"},
	{"hyundai", "автомобиль"},
	{"kia", "автомобиль"},
	{"haval", "автомобиль"},
	{"geely", "автомобиль"},
	{"chery", "автомобиль"},
	{"машина легковая", "автомобиль"},
	{"chanel", "духи"},
	{"dior", "духи"},
	{"rolex", "часы"},
	{"casio", "часы"},
	{"ikea", "мебель"},
}

type keywordGroup struct {
	Keywords []string
	Product  string
}

// keywordGroups are broad topic words that imply a product.
var keywordGroups = []keywordGroup{
	{Keywords: []string{"кофе", "эспрессо", "капучино", "латте"}, Product: "кофемашина"},
	{Keywords: []string{"парфюм", "аромат", "туалетная вода"}, Product: "духи"},
	{Keywords: []string{"косметик"}, Product: "крем"},
	{Keywords: []string{"обувь", "обуви"}, Product: "ботинки"},
	{Keywords: []string{"сладост", "конфет"}, Product: "шоколад"},
	{Keywords: []string{"спиртн", "алкогол"}, Product: "водка"},
	{Keywords: []string{"ювелир", "бриллиант"}, Product: "кольцо"},
	{Keywords: []string{"фитнес", "спортинвентар"}, Product: "тренажер"},
	{Keywords: []string{"пазл", "настольная игра"}, Product: "игрушка"},
	{Keywords: []string{"бытовая химия", "чистящ", "моющ"}, Product: "моющее средство"},
}

type materialHint struct {
	Stems    []string
	Material string
}

// materialHints override the default material when the text names one.
var materialHints = []materialHint{
	{Stems: []string{"кожан", "из кожи", "натуральной кожи"}, Material: "кожа натуральная"},
	{Stems: []string{"замш"}, Material: "кожа натуральная, замша"},
	{Stems: []string{"хлопк", "хлопок", "хлопч"}, Material: "хлопок"},
	{Stems: []string{"шерст"}, Material: "шерсть"},
	{Stems: []string{"синтет", "полиэстер", "нейлон"}, Material: "текстиль синтетический"},
	{Stems: []string{"текстил"}, Material: "текстиль"},
	{Stems: []string{"деревян", "из дерева", "массив"}, Material: "дерево"},
	{Stems: []string{"металлич", "стальн", "алюмини"}, Material: "металл"},
	{Stems: []string{"пластик", "пластмасс"}, Material: "пластик"},
	{Stems: []string{"золот"}, Material: "золото"},
	{Stems: []string{"серебр"}, Material: "серебро"},
}

type country struct {
	Code     string
	Exact    []string
	Prefixes []string
}

var countries = []country{
	{Code: "CN", Exact: []string{"кнр", "china"}, Prefixes: []string{"кита"}},
	{Code: "DE", Exact: []string{"germany"}, Prefixes: []string{"герман", "немецк"}},
	{Code: "IT", Exact: []string{"italy"}, Prefixes: []string{"итали", "итальянск"}},
	{Code: "US", Exact: []string{"сша", "usa"}, Prefixes: []string{"америк"}},
	{Code: "JP", Exact: []string{"japan"}, Prefixes: []string{"япони", "японск"}},
	{Code: "KR", Exact: []string{"korea"}, Prefixes: []string{"корея", "кореи", "корею", "корейск"}},
	{Code: "FR", Exact: []string{"france"}, Prefixes: []string{"франци", "французск"}},
	{Code: "TR", Exact: []string{"turkey", "turkiye"}, Prefixes: []string{"турци", "турецк"}},
	{Code: "VN", Exact: []string{"vietnam"}, Prefixes: []string{"вьетнам"}},
	{Code: "IN", Exact: []string{"india", "индия", "индии", "индию"}, Prefixes: []string{"индийск"}},
	{Code: "PL", Exact: []string{"poland"}, Prefixes: []string{"польш", "польск"}},
	{Code: "GB", Exact: []string{"uk"}, Prefixes: []string{"великобритан", "британ", "англи"}},
	{Code: "ES", Exact: []string{"spain"}, Prefixes: []string{"испани", "испанск"}},
	{Code: "CH", Exact: []string{"switzerland"}, Prefixes: []string{"швейцар"}},
	{Code: "BY", Exact: []string{"рб", "belarus"}, Prefixes: []string{"беларус", "белорус"}},
	{Code: "KZ", Exact: []string{"kazakhstan"}, Prefixes: []string{"казахстан", "казахск"}},
	{Code: "AM", Exact: []string{"armenia"}, Prefixes: []string{"армени", "армянск"}},
	{Code: "KG", Exact: []string{"kyrgyzstan"}, Prefixes: []string{"киргиз", "кыргыз"}},
}

func productByName(name string) (product, bool) {
	for _, p := range knownProducts {
		if p.Name == name {
			return p, true
		}
	}
	return product{}, false
}
