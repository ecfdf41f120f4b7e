package main

import (
	"github.com/bwesterb/go-huffpack"

	"github.com/op/go-logging"

	"rsc.io/getopt"

	"golang.org/x/term"

	"bufio"
	"errors"
	"flag"
	"io"
	"os"
	"strings"
)

var (
	// Flags

	decompress = flag.Bool("decompress", false, "specify to decompress")
	keep       = flag.Bool("keep", false, "keep (don't delete) input file")
	toStdout   = flag.Bool("stdout", false, "write to stdout; implies -k")
	force      = flag.Bool("force", false, "overwrite output")
	list       = flag.Bool("list", false, "print the code table of a compressed file")
	verbose    = flag.Bool("verbose", false, "log debugging information")
	lookupTree = flag.Bool("lookup-tree", false, "decode with a lookup tree instead of probing")
	tableFlag  = flag.String("table", "", "path of the code table (default: compressed file + "+tableExtension+")")

	// State
	inPath    string
	inFile    *os.File
	outPath   string
	outFile   *os.File
	tablePath string
)

const (
	progName       = "huffpack"
	extension      = ".hp"
	tableExtension = ".json"
)

var log = logging.MustGetLogger(progName + "/cmd")

func startLogging() {
	backend := logging.NewLogBackend(os.Stderr, progName+": ", 0)
	formatSpec := "%{level:8s} %{module:-12s} | %{message}"
	formatter := logging.MustStringFormatter(formatSpec)
	formatted := logging.NewBackendFormatter(backend, formatter)
	leveled := logging.AddModuleLevel(formatted)
	if *verbose {
		leveled.SetLevel(logging.DEBUG, "")
	} else {
		leveled.SetLevel(logging.INFO, "")
	}
	logging.SetBackend(leveled)
}

func readTable() (*huffpack.Table, error) {
	f, err := os.Open(tablePath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return huffpack.ReadTable(bufio.NewReader(f))
}

func writeTable(t *huffpack.Table) error {
	if _, err := os.Stat(tablePath); !*force && err == nil {
		return errors.New("already exists")
	}

	f, err := os.Create(tablePath)
	if err != nil {
		return err
	}

	if _, err = t.WriteTo(f); err != nil {
		f.Close()
		return err
	}

	return f.Close()
}

func doList() int {
	t, err := readTable()
	if err != nil {
		log.Errorf("%s: %v", tablePath, err)
		return 8
	}

	w := bufio.NewWriter(os.Stdout)
	t.Print(w)
	if err = w.Flush(); err != nil {
		log.Errorf("-: %v", err)
		return 10
	}

	return 0
}

func doDecompress() int {
	t, err := readTable()
	if err != nil {
		log.Errorf("%s: %v", tablePath, err)
		return 8
	}

	packed, err := io.ReadAll(inFile)
	if err != nil {
		log.Errorf("%s: %v", inPath, err)
		return 3
	}

	var opts []huffpack.Option
	if *lookupTree {
		opts = append(opts, huffpack.WithLookupTree())
	}

	data, err := huffpack.Decode(packed, t, opts...)
	if err != nil {
		log.Errorf("%s: %v", inPath, err)
		return 9
	}

	w := bufio.NewWriter(outFile)
	if _, err = w.Write(data); err == nil {
		err = w.Flush()
	}
	if err != nil {
		log.Errorf("%s: %v", outPath, err)
		return 10
	}

	log.Debugf("%s: %d bytes from %d", outPath, len(data), len(packed))

	return 0
}

func doCompress() int {
	data, err := io.ReadAll(inFile)
	if err != nil {
		log.Errorf("%s: %v", inPath, err)
		return 3
	}

	w := bufio.NewWriter(outFile)

	t, err := huffpack.Compress(w, data)
	if err != nil {
		log.Errorf("%s: %v", outPath, err)
		return 7
	}

	err = w.Flush()
	if err != nil {
		log.Errorf("%s: write: %v", outPath, err)
		return 7
	}

	if err = writeTable(t); err != nil {
		log.Errorf("%s: %v", tablePath, err)
		return 11
	}

	freq := huffpack.CountFrequencies(data)
	bits := huffpack.EncodedBits(freq, t.Codes)
	log.Debugf(
		"%s: %d symbols to %d bits, %d distinct, longest code %d bits",
		inPath,
		freq.Total(),
		bits,
		len(t.Codes),
		t.MaxLength(),
	)

	return 0
}

func do() int {
	var (
		err  error
		code int
	)

	if len(flag.Args()) > 1 {
		log.Error("too many arguments")
		return 2
	}

	if len(flag.Args()) == 0 {
		inPath = "-"
	} else {
		inPath = flag.Args()[0]
	}

	if *tableFlag != "" {
		tablePath = *tableFlag
	} else if inPath == "-" || (*toStdout && !*decompress && !*list) {
		log.Error("no file to store the code table in; use -t")
		return 2
	} else if *decompress || *list {
		tablePath = inPath + tableExtension
	} else {
		tablePath = inPath + extension + tableExtension
	}

	if *list {
		return doList()
	}

	closeInput := false
	closeOutput := false

	defer func() {
		if closeInput {
			inFile.Close()
		}

		if closeOutput {
			outFile.Close()

			if code != 0 {
				os.Remove(outPath)
			}
		}
	}()

	if inPath == "-" {
		inFile = os.Stdin
		closeInput = false
	} else {
		if _, err := os.Stat(inPath); errors.Is(err, os.ErrNotExist) {
			log.Errorf("%s: %v", inPath, err)
			return 1
		}

		inFile, err = os.Open(inPath)
		if err != nil {
			log.Errorf("%s: %v", inPath, err)
			return 3
		}
		closeInput = true
	}

	if inPath == "-" {
		outPath = "-"
	} else {
		if *toStdout {
			outPath = "-"
		} else if *decompress {
			if strings.HasSuffix(inPath, extension) {
				outPath = inPath[:len(inPath)-len(extension)]
			} else {
				outPath = inPath + ".out"
				log.Warningf(
					"%s: Unknown extension, writing to %s",
					inPath,
					outPath,
				)
			}
		} else {
			outPath = inPath + extension
		}
	}

	if outPath == "-" {
		outFile = os.Stdout

		if term.IsTerminal(int(os.Stdout.Fd())) && !*decompress {
			log.Error("I'm not writing compressed data to stdout")
			return 13
		}
	} else {
		if _, err := os.Stat(outPath); !*force && err == nil {
			log.Errorf("%s: already exists", outPath)
			return 11
		}

		outFile, err = os.Create(outPath)
		if err != nil {
			log.Errorf("%s: create: %v", outPath, err)
			return 4
		}

		closeOutput = true
	}

	if *decompress {
		code = doDecompress()
	} else {
		code = doCompress()
	}

	if closeInput {
		closeInput = false
		inFile.Close()

		if !*keep && !*toStdout && code == 0 {
			err = os.Remove(inPath)
			if err != nil {
				log.Errorf("%s: unlink: %v", inPath, err)
				return 2
			}

			if *decompress && *tableFlag == "" {
				if err = os.Remove(tablePath); err != nil {
					log.Errorf("%s: unlink: %v", tablePath, err)
					return 2
				}
			}
		}
	}

	return code
}

func main() {
	getopt.Alias("d", "decompress")
	getopt.Alias("k", "keep")
	getopt.Alias("c", "stdout")
	getopt.Alias("f", "force")
	getopt.Alias("l", "list")
	getopt.Alias("v", "verbose")
	getopt.Alias("t", "table")

	// Work around https://github.com/rsc/getopt/issues/3
	err := getopt.CommandLine.Parse(os.Args[1:])
	if err != nil {
		os.Exit(12)
	}

	startLogging()

	ret := do()
	os.Exit(ret)
}
