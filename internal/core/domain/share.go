package domain

// Share channels
const (
	ChannelWhatsApp = "whatsapp"
	ChannelTelegram = "telegram"
	ChannelTwitter  = "twitter"
	ChannelFacebook = "facebook"
	ChannelEmail    = "email"
	ChannelCopy     = "copy"
)

// ShareChannels lists every supported channel
func ShareChannels() []string {
	return []string{ChannelWhatsApp, ChannelTelegram, ChannelTwitter, ChannelFacebook, ChannelEmail, ChannelCopy}
}

// ShareMessage holds the outbound texts for a record
type ShareMessage struct {
	Title       string            `json:"title"`
	Description string            `json:"description"`
	URL         string            `json:"url"`
	PerChannel  map[string]string `json:"per_channel"`
}
