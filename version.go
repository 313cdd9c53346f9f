package rentbot

// Version is the release version. Builds override it with
// -ldflags "-X github.com/propertytek/rentbot.Version=...".
var Version = "0.1.0"
