package localization

import "golang.org/x/text/language"

// Phrase keys used across the bindery modules.
const (
	KeyPlayerReady   = "player.ready"
	KeyLibraryTracks = "library.tracks"
	KeyAdminServing  = "admin.serving"
	KeyVolume        = "player.volume"
)

type English struct{}

func NewEnglish() *English { return &English{} }

func (*English) Language() language.Tag { return language.English }

func (*English) Phrases() map[string]string {
	return map[string]string{
		KeyPlayerReady:   "Player ready on output %s",
		KeyLibraryTracks: "%d tracks in library",
		KeyAdminServing:  "Health endpoint listening on %s",
		KeyVolume:        "Volume %d%%",
	}
}

type German struct{}

func NewGerman() *German { return &German{} }

func (*German) Language() language.Tag { return language.German }

func (*German) Phrases() map[string]string {
	return map[string]string{
		KeyPlayerReady:   "Wiedergabe bereit auf Ausgabe %s",
		KeyLibraryTracks: "%d Titel in der Bibliothek",
		KeyAdminServing:  "Statusendpunkt lauscht auf %s",
		KeyVolume:        "Lautstärke %d%%",
	}
}
