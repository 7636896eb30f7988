package ingest

import (
	"io"
	"io/fs"
	"log"
	"sort"

	"github.com/gocarina/gocsv"
	"github.com/pkg/errors"
	"github.com/spkg/bom"

	"transit_router/pkg/catalogue"
	"transit_router/pkg/geo"
)

// StopCSV is a row of stops.csv.
type StopCSV struct {
	Name string  `csv:"name"`
	Lat  float64 `csv:"lat"`
	Lng  float64 `csv:"lng"`
}

// DistanceCSV is a row of distances.csv: road meters from one stop to
// another.
type DistanceCSV struct {
	From   string  `csv:"from"`
	To     string  `csv:"to"`
	Meters float64 `csv:"meters"`
}

// BusCSV is a row of buses.csv.
type BusCSV struct {
	Name        string `csv:"name"`
	IsRoundtrip bool   `csv:"is_roundtrip"`
}

// BusStopCSV is a row of bus_stops.csv, placing a stop at a position of a
// bus's declared stop list.
type BusStopCSV struct {
	Bus  string `csv:"bus"`
	Seq  int    `csv:"seq"`
	Stop string `csv:"stop"`
}

// SettingsCSV is the single row of the optional settings.csv.
type SettingsCSV struct {
	BusVelocity float64 `csv:"bus_velocity"`
	BusWaitTime float64 `csv:"bus_wait_time"`
}

// unmarshalCSV decodes rows into out. LazyCSVReader survives sloppy use of
// quotes; the BOM reader strips unicode BOMs if present.
func unmarshalCSV(in io.Reader, out any) error {
	return gocsv.UnmarshalCSV(gocsv.LazyCSVReader(bom.NewReader(in)), out)
}

func readCSV(fsys fs.FS, name string, out any, required bool) (bool, error) {
	f, err := fsys.Open(name)
	if errors.Is(err, fs.ErrNotExist) && !required {
		return false, nil
	}
	if err != nil {
		return false, errors.Wrapf(err, "opening %s", name)
	}
	defer f.Close()

	if err := unmarshalCSV(f, out); err != nil {
		return false, errors.Wrapf(err, "unmarshaling %s", name)
	}
	return true, nil
}

// LoadCSV loads a catalogue from a directory holding stops.csv,
// distances.csv, buses.csv and bus_stops.csv, plus an optional
// settings.csv.
func LoadCSV(fsys fs.FS, store *catalogue.Store) error {
	var stops []*StopCSV
	if _, err := readCSV(fsys, "stops.csv", &stops, true); err != nil {
		return err
	}
	for i, st := range stops {
		if st.Name == "" {
			return errors.Wrapf(ErrMalformed, "stops.csv row %d: empty name", i+1)
		}
		coords := geo.Coordinates{Lat: st.Lat, Lng: st.Lng}
		if !coords.Valid() {
			return errors.Wrapf(ErrMalformed, "stops.csv row %d: invalid coordinates", i+1)
		}
		if _, err := store.AddStop(st.Name, coords); err != nil {
			return errors.Wrapf(err, "stops.csv row %d", i+1)
		}
	}

	var distances []*DistanceCSV
	if _, err := readCSV(fsys, "distances.csv", &distances, true); err != nil {
		return err
	}
	for i, d := range distances {
		if d.Meters < 0 {
			return errors.Wrapf(ErrMalformed, "distances.csv row %d: negative distance", i+1)
		}
		if err := store.AddDistance(d.From, d.To, d.Meters); err != nil {
			return errors.Wrapf(err, "distances.csv row %d", i+1)
		}
	}

	var buses []*BusCSV
	if _, err := readCSV(fsys, "buses.csv", &buses, true); err != nil {
		return err
	}
	var busStops []*BusStopCSV
	if _, err := readCSV(fsys, "bus_stops.csv", &busStops, true); err != nil {
		return err
	}
	sort.SliceStable(busStops, func(i, j int) bool {
		if busStops[i].Bus != busStops[j].Bus {
			return busStops[i].Bus < busStops[j].Bus
		}
		return busStops[i].Seq < busStops[j].Seq
	})
	stopsByBus := map[string][]string{}
	for i, bs := range busStops {
		if i > 0 && busStops[i-1].Bus == bs.Bus && busStops[i-1].Seq == bs.Seq {
			return errors.Wrapf(ErrMalformed, "bus_stops.csv: bus %q has seq %d twice", bs.Bus, bs.Seq)
		}
		stopsByBus[bs.Bus] = append(stopsByBus[bs.Bus], bs.Stop)
	}

	declared := map[string]bool{}
	for i, b := range buses {
		if b.Name == "" {
			return errors.Wrapf(ErrMalformed, "buses.csv row %d: empty name", i+1)
		}
		declared[b.Name] = true
		if _, err := store.AddBus(b.Name, stopsByBus[b.Name], b.IsRoundtrip); err != nil {
			return errors.Wrapf(err, "buses.csv row %d", i+1)
		}
	}
	for name := range stopsByBus {
		if !declared[name] {
			return errors.Wrapf(ErrMalformed, "bus_stops.csv references unknown bus %q", name)
		}
	}

	var settings []*SettingsCSV
	found, err := readCSV(fsys, "settings.csv", &settings, false)
	if err != nil {
		return err
	}
	if found {
		if len(settings) != 1 {
			return errors.Wrapf(ErrMalformed, "settings.csv: want 1 row, got %d", len(settings))
		}
		if err := store.AddSpeedAndWait(settings[0].BusVelocity, settings[0].BusWaitTime); err != nil {
			return errors.Wrap(err, "settings.csv")
		}
	}

	log.Printf("Loaded CSV catalogue: %d stops, %d distances, %d buses", len(stops), len(distances), len(buses))
	return nil
}
