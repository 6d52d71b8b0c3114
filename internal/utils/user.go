package utils

import (
	"math/rand"
)

var avatarEmojis = []string{
	"🌱", "🌿", "🍃", "🌾", "🌲", "🌳",
	"🐼", "🦊", "🐨", "🐸", "🦉", "🐯", "🐱", "🐶",
	"😀", "😊", "😎", "🤓", "⭐", "✨", "💡", "🚀",
}

// RandomAvatar 返回一个随机 emoji 用于默认头像
func RandomAvatar() string {
	return avatarEmojis[rand.Intn(len(avatarEmojis))]
}

// AvatarChoices 返回可选的头像 emoji
func AvatarChoices() []string {
	out := make([]string, len(avatarEmojis))
	copy(out, avatarEmojis)
	return out
}
