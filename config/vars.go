package config

// Directory layout inside the game directory.
const (
	TempDir     = ".tmp"
	DownloadDir = "downloads"
	BinDir      = "bin"
)

// Keys set at runtime by the launcher shell.
const (
	KeyServer         = "server"
	KeyPort           = "port"
	KeyLatestVersion  = "latestVersion"
	KeyDownloadTicket = "downloadTicket"
	KeyUserName       = "userName"
	KeySessionID      = "sessionID"
	KeyStandAlone     = "stand-alone"
	KeyLastUserName   = "launcher.lastUserName"
)

// DefaultPort is used when a server is given without a port.
const DefaultPort = "25565"
