// Package validator проверяет синтаксис URL перед сохранением.
package validator

import "regexp"

// Хост: доменное имя с TLD из 2-6 букв, localhost или IPv4 без проверки диапазона октетов
// (999.999.999.999 проходит).
var urlPattern = regexp.MustCompile(
	`^https?://` +
		`(?:` +
		`(?:[A-Za-z0-9](?:[A-Za-z0-9-]{0,61}[A-Za-z0-9])?\.)+[A-Za-z]{2,6}\.?` +
		`|` +
		`localhost` +
		`|` +
		`\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3}` +
		`)` +
		`(?::\d+)?` +
		`(?:/?|[/?]\S+)$`,
)

// IsValidURL сообщает, можно ли сократить candidate.
func IsValidURL(candidate string) bool {
	return urlPattern.MatchString(candidate)
}
