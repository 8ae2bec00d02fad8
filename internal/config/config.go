package config

type Config struct {
	Security SecurityConf `json:"security"`
	Pricing  PricingConf  `json:"pricing"`
	Telegram TelegramConf `json:"telegram"`
}

type SecurityConf struct {
	JwtSecret string `json:"jwt_secret"` // 为空时启动生成随机密钥，重启后已签发token失效
}

type PricingConf struct {
	AutoStart bool `json:"auto_start"` // 启动时是否自动运行重算循环
}

type TelegramConf struct {
	Enabled bool   `json:"enabled"`
	Token   string `json:"token"`
	ChatID  string `json:"chat_id"` // 价格变动通知的目标会话
}
