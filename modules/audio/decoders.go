package audio

import "bytes"

// HeaderSize is the number of leading bytes every decoder needs to detect
// its format.
const HeaderSize = 12

type WAVDecoder struct{}

func NewWAVDecoder() *WAVDecoder { return &WAVDecoder{} }

func (*WAVDecoder) Format() string       { return "wav" }
func (*WAVDecoder) Extensions() []string { return []string{".wav", ".wave"} }

func (*WAVDecoder) Detect(h []byte) bool {
	return len(h) >= 12 && bytes.Equal(h[0:4], []byte("RIFF")) && bytes.Equal(h[8:12], []byte("WAVE"))
}

type FLACDecoder struct{}

func NewFLACDecoder() *FLACDecoder { return &FLACDecoder{} }

func (*FLACDecoder) Format() string       { return "flac" }
func (*FLACDecoder) Extensions() []string { return []string{".flac"} }
func (*FLACDecoder) Detect(h []byte) bool { return bytes.HasPrefix(h, []byte("fLaC")) }

type OggDecoder struct{}

func NewOggDecoder() *OggDecoder { return &OggDecoder{} }

func (*OggDecoder) Format() string       { return "ogg" }
func (*OggDecoder) Extensions() []string { return []string{".ogg", ".oga", ".opus"} }
func (*OggDecoder) Detect(h []byte) bool { return bytes.HasPrefix(h, []byte("OggS")) }

type MP3Decoder struct{}

func NewMP3Decoder() *MP3Decoder { return &MP3Decoder{} }

func (*MP3Decoder) Format() string       { return "mp3" }
func (*MP3Decoder) Extensions() []string { return []string{".mp3"} }

// Detect accepts an ID3v2 tag or a bare MPEG frame sync.
func (*MP3Decoder) Detect(h []byte) bool {
	if bytes.HasPrefix(h, []byte("ID3")) {
		return true
	}
	return len(h) >= 2 && h[0] == 0xFF && h[1]&0xE0 == 0xE0
}
