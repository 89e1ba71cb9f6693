package launcher

import (
	"mclauncher/config"
)

// Settings holds everything the launcher needs from the configuration and the login session.
type Settings struct {
	GameName        string
	GameDir         string
	Executable      string
	Arguments       []string
	ServerArguments []string

	BaseURL            string
	Files              []string
	DownloadParameters string
	ForceUpdate        bool
	Concurrency        int

	UserName       string
	SessionID      string
	LatestVersion  string
	DownloadTicket string
	Server         string
	Port           string
}

// SettingsFromConfig reads the launcher settings, including the session keys stored by the login.
func SettingsFromConfig(cfg *config.Configuration) Settings {
	return Settings{
		GameName:        cfg.GetString("gameLauncher.gameName"),
		GameDir:         cfg.GetString("gameLauncher.gameDir"),
		Executable:      cfg.GetString("gameLauncher.executable"),
		Arguments:       cfg.GetStringList("gameLauncher.arguments"),
		ServerArguments: cfg.GetStringList("gameLauncher.serverArguments"),

		BaseURL:            cfg.GetString("updater.baseURL"),
		Files:              cfg.GetStringList("updater.files"),
		DownloadParameters: cfg.GetString("updater.downloadParameters"),
		ForceUpdate:        cfg.GetBool("updater.forceUpdate"),
		Concurrency:        cfg.GetInt("updater.concurrency"),

		UserName:       cfg.GetString(config.KeyUserName),
		SessionID:      cfg.GetString(config.KeySessionID),
		LatestVersion:  cfg.GetString(config.KeyLatestVersion),
		DownloadTicket: cfg.GetString(config.KeyDownloadTicket),
		Server:         cfg.GetString(config.KeyServer),
		Port:           cfg.GetString(config.KeyPort),
	}
}

func (s Settings) keys(gameDir string) map[string]string {
	return map[string]string{
		"USERNAME":   s.UserName,
		"SESSION_ID": s.SessionID,
		"VERSION":    s.LatestVersion,
		"TICKET":     s.DownloadTicket,
		"SERVER":     s.Server,
		"PORT":       s.Port,
		"GAME_DIR":   gameDir,
	}
}
