package catalog

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"vedexpert/internal"
)

const notSpecified = "Не указана"

var countryJurisdiction = map[string]string{
	"CN": "china",
	"US": "usa",
	"BY": "belarus",
	"KZ": "kazakhstan",
	"DE": "eu", "FR": "eu", "IT": "eu", "ES": "eu", "NL": "eu", "PL": "eu", "CZ": "eu",
	"AT": "eu", "BE": "eu", "SE": "eu", "FI": "eu", "PT": "eu", "GR": "eu", "IE": "eu",
	"DK": "eu", "HU": "eu", "RO": "eu", "BG": "eu", "SK": "eu", "SI": "eu", "LT": "eu",
	"LV": "eu", "EE": "eu", "HR": "eu", "LU": "eu", "CY": "eu", "MT": "eu",
}

var dutyKeyOrder = []string{"base", "china", "eu", "usa", "belarus", "kazakhstan"}

// DutyFor returns the duty rate for an ISO-2 origin, falling back to the
// base rate.
func DutyFor(e internal.TariffEntry, country string) (float64, bool) {
	if key, ok := countryJurisdiction[strings.ToUpper(strings.TrimSpace(country))]; ok {
		if rate, ok := e.Duties[key]; ok {
			return rate, true
		}
	}
	rate, ok := e.Duties["base"]
	return rate, ok
}

// FormatDuties renders non-zero rates as "key: rate%" in a stable order.
func FormatDuties(duties map[string]float64) string {
	keys := make([]string, 0, len(duties))
	for k := range duties {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		oi, oj := dutyOrder(keys[i]), dutyOrder(keys[j])
		if oi != oj {
			return oi < oj
		}
		return keys[i] < keys[j]
	})

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		if duties[k] == 0 {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s: %s%%", k, formatRate(duties[k])))
	}
	if len(parts) == 0 {
		return notSpecified
	}
	return strings.Join(parts, ", ")
}

func FormatCertification(cert []string) string {
	if len(cert) == 0 {
		return notSpecified
	}
	return strings.Join(cert, ", ")
}

func FormatEntry(e internal.TariffEntry) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Код ТН ВЭД: %s\n", e.Code)
	fmt.Fprintf(&b, "Название: %s\n", orDefault(e.Name, "Не указано"))
	fmt.Fprintf(&b, "Описание: %s\n", orDefault(e.Description, "Не указано"))
	fmt.Fprintf(&b, "Группа: %s\n", orDefault(e.Group, notSpecified))
	fmt.Fprintf(&b, "Пошлина: %s\n", FormatDuties(e.Duties))
	fmt.Fprintf(&b, "Сертификация: %s", FormatCertification(e.Certification))
	if len(e.Restrictions) > 0 {
		fmt.Fprintf(&b, "\nОграничения: %s", strings.Join(e.Restrictions, ", "))
	}
	return b.String()
}

func FormatSearchResults(results []internal.TariffEntry, query string) string {
	if len(results) == 0 {
		return fmt.Sprintf("Товары по запросу '%s' не найдены в базе данных", query)
	}
	if len(results) == 1 {
		return FormatEntry(results[0])
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Найдено %d товаров по запросу '%s':\n", len(results), query)
	for i, e := range results {
		if i == 10 {
			fmt.Fprintf(&b, "... и еще %d товаров\n", len(results)-10)
			break
		}
		name := []rune(e.Name)
		title := e.Name
		if len(name) > 60 {
			title = string(name[:60]) + "..."
		}
		fmt.Fprintf(&b, "%d. %s - %s\n", i+1, e.Code, title)
	}
	return strings.TrimRight(b.String(), "\n")
}

func dutyOrder(key string) int {
	for i, k := range dutyKeyOrder {
		if k == key {
			return i
		}
	}
	return len(dutyKeyOrder)
}

func formatRate(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func orDefault(v, fallback string) string {
	if strings.TrimSpace(v) == "" {
		return fallback
	}
	return v
}
