package config

import (
	"fmt"
	"os"
)

func Template() string {
	return gatewayTemplate
}

func WriteTemplate(path string, overwrite bool) error {
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config already exists: %s", path)
		}
	}
	return os.WriteFile(path, []byte(gatewayTemplate), 0o600)
}

const gatewayTemplate = `[gateway]
addr = ":32960"
read_timeout = "3m"
write_timeout = "10s"
max_body_bytes = 65535

[admin]
enabled = true
addr = ":9090"
cors_origins = ["http://localhost:3000"]

[log]
level = "info"
# file = "/var/log/gbtlink/gateway.log"
max_size_mb = 64
max_backups = 4
max_age_days = 14
compress = false
`
