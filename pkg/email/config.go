package email

// Config holds email service configuration. The Postmark tokens are optional
// so development environments can run with the file-based dev sender instead.
type Config struct {
	PostmarkServerToken  string `env:"POSTMARK_SERVER_TOKEN"`
	PostmarkAccountToken string `env:"POSTMARK_ACCOUNT_TOKEN"`
	SenderEmail          string `env:"SENDER_EMAIL" envDefault:"no-reply@stackdek.app"`
	SupportEmail         string `env:"SUPPORT_EMAIL" envDefault:"support@stackdek.app"`
	DevOutputDir         string `env:"EMAIL_DEV_DIR" envDefault:"./tmp/emails"`
}
