package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/velora/stepsynth"
	"github.com/velora/stepsynth/midiin"
	"github.com/velora/stepsynth/oto"
	"github.com/velora/stepsynth/synth"
)

func main() {
	help := flag.Bool("h", false, "Show help.")
	play := flag.Bool("p", false, "Play the input songs (default behaviour when no other output is defined).")
	rawOut := flag.Bool("r", false, "Output the rendered song as .raw file. By default, saves interleaved float32 buffer to disk.")
	wavOut := flag.Bool("w", false, "Output the rendered song as .wav file. By default, saves interleaved float32 buffer to disk.")
	pcm := flag.Bool("c", false, "Convert audio to 16-bit signed PCM when outputting.")
	loops := flag.Int("l", 1, "Number of times to loop the song when playing.")
	directory := flag.String("o", "", "Directory where to output all files. The directory and its parents are created if needed. By default, everything is placed in the same directory where the original song file is.")
	midiDevice := flag.String("m", "", "Play live through the first MIDI input device whose name starts with the given prefix, using the first track's instrument. Pass \"*\" for the first available device.")
	flag.Usage = printUsage
	flag.Parse()
	if flag.NArg() == 0 || *help {
		flag.Usage()
		os.Exit(0)
	}
	if !*rawOut && !*wavOut && *midiDevice == "" {
		*play = true // if the user gives nothing to output, then the default behaviour is just to play the file
	}
	retval := 0
	for _, filename := range flag.Args() {
		if err := process(filename, *play, *rawOut, *wavOut, *pcm, *loops, *directory, *midiDevice); err != nil {
			fmt.Fprintf(os.Stderr, "could not process file %v: %v\n", filename, err)
			retval = 1
		}
	}
	os.Exit(retval)
}

func process(filename string, play, rawOut, wavOut, pcm bool, loops int, directory, midiDevice string) error {
	inputBytes, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("could not read file %v: %w", filename, err)
	}
	song, err := stepsynth.ParseSong(inputBytes)
	if err != nil {
		return err
	}
	if rawOut || wavOut {
		buffer, err := synth.RenderSong(song)
		if err != nil {
			return fmt.Errorf("could not render song: %w", err)
		}
		if rawOut {
			raw, err := stepsynth.Raw(buffer, pcm)
			if err != nil {
				return fmt.Errorf("could not generate .raw file: %w", err)
			}
			if err := output(filename, directory, ".raw", raw); err != nil {
				return err
			}
		}
		if wavOut {
			wav, err := stepsynth.Wav(buffer, pcm, song.Config)
			if err != nil {
				return fmt.Errorf("could not generate .wav file: %w", err)
			}
			if err := output(filename, directory, ".wav", wav); err != nil {
				return err
			}
		}
	}
	if !play && midiDevice == "" {
		return nil
	}
	audioContext, err := oto.NewContext(song.Config)
	if err != nil {
		return fmt.Errorf("could not acquire oto AudioContext: %w", err)
	}
	defer audioContext.Close()
	sink := audioContext.Output()
	defer sink.Close()
	if midiDevice != "" {
		return playLive(song, sink, midiDevice)
	}
	return playSong(song, sink, loops)
}

func playSong(song stepsynth.Song, sink stepsynth.AudioSink, loops int) error {
	engine, err := synth.LoadSong(song)
	if err != nil {
		return err
	}
	cfg := song.Config
	chunk := make([]float32, cfg.BufferSize*cfg.Channels)
	total := song.TotalFrames() * loops
	for rendered := 0; rendered < total; rendered += cfg.BufferSize {
		engine.RenderInterleaved(chunk)
		if err := sink.WriteAudio(chunk); err != nil {
			return fmt.Errorf("could not write audio: %w", err)
		}
	}
	// let the sink drain before closing
	time.Sleep(time.Second * time.Duration(cfg.BufferSize*4) / time.Duration(cfg.SampleRate))
	return nil
}

// playLive creates and releases live events from incoming MIDI notes,
// rendering until interrupted.
func playLive(song stepsynth.Song, sink stepsynth.AudioSink, midiDevice string) error {
	engine, err := synth.NewEngine(song.Config)
	if err != nil {
		return err
	}
	instr := engine.NewInstrument(song.Tracks[0].Instrument)

	midiContext := midiin.NewContext()
	defer midiContext.Close()
	if err := midiContext.OpenBy(midiDevice, midiDevice == "*"); err != nil {
		return err
	}
	fmt.Fprintln(os.Stderr, "playing live, press ctrl-c to quit")

	cfg := song.Config
	chunk := make([]float32, cfg.BufferSize*cfg.Channels)
	held := map[uint8]*synth.SynthEvent{}
	for {
		for {
			ev, ok := midiContext.NextEvent()
			if !ok {
				break
			}
			if ev.On {
				if held[ev.Note] == nil {
					held[ev.Note] = synth.NewLiveEvent(stepsynth.NoteToFrequency(ev.Note), instr)
				}
			} else if e := held[ev.Note]; e != nil {
				e.SetDeletable(true)
				delete(held, ev.Note)
			}
		}
		engine.RenderInterleaved(chunk)
		if err := sink.WriteAudio(chunk); err != nil {
			return fmt.Errorf("could not write audio: %w", err)
		}
	}
}

func output(filename, directory, extension string, contents []byte) error {
	_, name := filepath.Split(filename)
	dir := directory
	if dir == "" {
		var err error
		dir, err = os.Getwd()
		if err != nil {
			return fmt.Errorf("could not get working directory, specify the output directory explicitly: %w", err)
		}
	}
	name = strings.TrimSuffix(name, filepath.Ext(name)) + extension
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return fmt.Errorf("could not create output directory %v: %w", dir, err)
	}
	f := filepath.Join(dir, name)
	if err := os.WriteFile(f, contents, 0644); err != nil {
		return fmt.Errorf("could not write file %v: %w", f, err)
	}
	return nil
}

func printUsage() {
	fmt.Fprintf(os.Stderr, "Command line utility for playing and rendering .yml song files.\nUsage: %s [flags] [path ...]\n", os.Args[0])
	flag.PrintDefaults()
}
