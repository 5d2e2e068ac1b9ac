package lobby

import "strings"

const forbiddenNicknameChars = "/<>[]*^@#"

// ValidateNickname applies the nickname policy shared by creators and joiners.
func ValidateNickname(name string) error {
	if name == "" || strings.ContainsAny(name, forbiddenNicknameChars) {
		return ErrInvalidNickname
	}
	return nil
}
