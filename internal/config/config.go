package config

type Config struct {
	Environment Environment
	Log         Log
	HTTP        HTTPServer
	BaseURL     string `env:"BASE_URL" envDefault:"http://localhost:8080"`

	Database Database
	Admin    Admin `envPrefix:"ADMIN_"`
	Session  Session
	Report   Report

	// hpos | legacy
	OrderStorage string `env:"ORDER_STORAGE" envDefault:"hpos"`
	SeedProducts bool   `env:"SEED_PRODUCTS" envDefault:"true"`
}

type Environment struct {
	Name string `env:"ENVIRONMENT" envDefault:"development"`
}

func (e Environment) IsProduction() bool {
	return e.Name == "production"
}

type Log struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"json"`
}

type HTTPServer struct {
	Host string `env:"HTTP_HOST" envDefault:"0.0.0.0"`
	Port string `env:"HTTP_PORT" envDefault:"8080"`
}

type Database struct {
	Driver string `env:"DB_DRIVER" envDefault:"sqlite"` // sqlite | mysql
	URL    string `env:"DATABASE_URL" envDefault:"purchase-options.db"`
}

type Admin struct {
	Username string `env:"USERNAME" envDefault:"admin"`
	Password string `env:"PASSWORD"`
}

type Session struct {
	CookieName   string `env:"SESSION_COOKIE_NAME" envDefault:"cart_session"`
	CookieSecure bool   `env:"SESSION_COOKIE_SECURE" envDefault:"false"`
}

type Report struct {
	PerPage int `env:"REPORT_PER_PAGE" envDefault:"20"`
}
