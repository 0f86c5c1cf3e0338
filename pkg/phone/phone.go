package phone

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/nyaruka/phonenumbers"
)

var mobile10 = regexp.MustCompile(`^\d{10}$`)

// IsMobile10 校验不带区号的 10 位手机号
func IsMobile10(s string) bool {
	return mobile10.MatchString(s)
}

// Normalize 把本地号码或已带区号的号码统一成 E.164
func Normalize(raw, region string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("empty phone number")
	}

	num, err := phonenumbers.Parse(raw, region)
	if err != nil {
		return "", fmt.Errorf("parse phone number: %w", err)
	}
	if !phonenumbers.IsValidNumber(num) {
		return "", fmt.Errorf("invalid phone number for region %s", region)
	}

	return phonenumbers.Format(num, phonenumbers.E164), nil
}

// National 返回不带国家码的号码，解析失败时原样返回
func National(raw, region string) string {
	num, err := phonenumbers.Parse(raw, region)
	if err != nil {
		return raw
	}
	return fmt.Sprintf("%d", num.GetNationalNumber())
}
