package config

import "os"

func IsDebug() bool {
	return os.Getenv("CAREBOT_DEBUG") == "1"
}
