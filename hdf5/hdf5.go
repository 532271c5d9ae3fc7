// Package hdf5 records simulations to HDF5 files and replays them.
package hdf5

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"time"

	"github.com/pkg/errors"
	"gonum.org/v1/hdf5"

	moplat "github.com/superxueyizou/MoPlaT"
	"github.com/superxueyizou/MoPlaT/geom"
)

// A Dataset stipulates how to generate data and where to store them in the HDF5 file.
type Dataset struct {
	// Name the name of the dataset in the HDF5 file.
	Name string

	// Val is a value of the same concrete type as the underlying type of the data.
	Val interface{}

	// Dims are the dimensions of the data for a single step.
	Dims []int

	// Data is a function that produces the data
	// as a pointer to a slice of row-major concrete values.
	Data func(s *moplat.Simulation) interface{}

	dset   *hdf5.Dataset
	fspace *hdf5.Dataspace
	mspace *hdf5.Dataspace
}

// Config holds the parameters of the HDF5 driver.
type Config struct {
	Output   string      // path of output file
	Steps    int         // total number of steps
	Step     func()      // go to next step
	Datasets []*Dataset  // list of datasets
	Params   interface{} // pointer to a struct saved as attributes of the "config" dataset
}

// Run runs a simulation and saves data to an HDF5 file.
// Data are recorded before each step.
func Run(s *moplat.Simulation, conf *Config) (err error) {
	if err := os.MkdirAll(filepath.Dir(conf.Output), 0755); err != nil {
		return errors.Wrap(err, "hdf5")
	}

	file, err := hdf5.CreateFile(conf.Output, hdf5.F_ACC_TRUNC)
	if err != nil {
		return errors.Wrapf(err, "hdf5: create %s", conf.Output)
	}
	defer checkClose(&err, file)

	if err := saveConfig(file, conf); err != nil {
		return errors.Wrap(err, "hdf5: save config")
	}

	for _, d := range conf.Datasets {
		if err := d.init(file, conf); err != nil {
			return errors.Wrapf(err, "hdf5: create dataset %s", d.Name)
		}
		defer checkClose(&err, d)
	}

	for k := uint(0); k < uint(conf.Steps); k++ {
		// show progress as percentage
		fmt.Printf("\r% 3d%%", 100*k/uint(conf.Steps))

		for _, d := range conf.Datasets {
			start := make([]uint, len(d.Dims)+1)
			start[0] = k
			if err := d.fspace.SetOffset(start); err != nil {
				return err
			}
			if err := d.dset.WriteSubset(d.Data(s), d.mspace, d.fspace); err != nil {
				return errors.Wrapf(err, "hdf5: write %s at step %d", d.Name, k)
			}
		}

		conf.Step()
	}
	fmt.Printf("\r100%%\n")
	return nil
}

// A Record is what is recorded in the HDF5 file for each agent at each step.
// This structure is mapped to a compound datatype in HDF5 so member names are important.
type Record struct {
	Pos    geom.Vec2 // position
	Vel    geom.Vec2 // velocity
	Pref   geom.Vec2 // preferred velocity
	Radius float64
	Alive  int32 // 1 if alive
}

// AgentDatasets returns the datasets recording the state of the first n
// agents of a simulation: "agents" (Record), "distance" and "energy".
// Missing agents are recorded as zero values.
func AgentDatasets(n int) []*Dataset {
	records := make([]Record, n)
	distance := make([]float64, n)
	energy := make([]float64, n)
	return []*Dataset{
		{
			Name: "agents",
			Val:  Record{},
			Dims: []int{n},
			Data: func(s *moplat.Simulation) interface{} {
				for i := range records {
					records[i] = Record{}
					if a := s.Agent(i); a != nil {
						records[i] = Record{
							Pos:    a.Position(),
							Vel:    a.Velocity(),
							Pref:   a.PrefVelocity(),
							Radius: a.Radius(),
						}
						if a.Alive() {
							records[i].Alive = 1
						}
					}
				}
				return &records
			},
		},
		{
			Name: "distance",
			Val:  0.0,
			Dims: []int{n},
			Data: func(s *moplat.Simulation) interface{} {
				for i := range distance {
					distance[i] = 0
					if a := s.Agent(i); a != nil {
						distance[i] = a.Distance()
					}
				}
				return &distance
			},
		},
		{
			Name: "energy",
			Val:  0.0,
			Dims: []int{n},
			Data: func(s *moplat.Simulation) interface{} {
				for i := range energy {
					energy[i] = 0
					if a := s.Agent(i); a != nil {
						energy[i] = a.Energy()
					}
				}
				return &energy
			},
		},
	}
}

// saveConfig creates a "config" dataset with a null dataspace whose attributes
// reflect the whole configuration plus some other appropriate metadata.
func saveConfig(file *hdf5.File, conf *Config) (err error) {
	null, err := hdf5.CreateDataspace(hdf5.S_NULL)
	if err != nil {
		return err
	}
	defer checkClose(&err, null)

	anytype, err := hdf5.NewDatatypeFromValue(0)
	if err != nil {
		return err
	}
	defer checkClose(&err, anytype)

	dset, err := file.CreateDataset("config", anytype, null)
	if err != nil {
		return err
	}
	defer checkClose(&err, dset)

	scalar, err := hdf5.CreateDataspace(hdf5.S_SCALAR)
	if err != nil {
		return err
	}
	defer checkClose(&err, scalar)

	now := time.Now().String()
	if err := writeAttr(dset, scalar, "Time", &now); err != nil {
		return err
	}

	if conf.Params == nil {
		return nil
	}
	v := reflect.Indirect(reflect.ValueOf(conf.Params))
	if v.Kind() != reflect.Struct {
		return errors.Errorf("parameters of type %T are not a struct", conf.Params)
	}
	for i := 0; i < v.NumField(); i++ {
		name := v.Type().Field(i).Name
		if !v.Type().Field(i).IsExported() {
			continue
		}
		var err error
		switch f := v.Field(i); f.Kind() {
		case reflect.Float64:
			x := f.Float()
			err = writeAttr(dset, scalar, name, &x)
		case reflect.Int, reflect.Int64:
			x := int(f.Int())
			err = writeAttr(dset, scalar, name, &x)
		case reflect.Bool:
			x := 0
			if f.Bool() {
				x = 1
			}
			err = writeAttr(dset, scalar, name, &x)
		case reflect.String:
			x := f.String()
			err = writeAttr(dset, scalar, name, &x)
		}
		if err != nil {
			return errors.Wrapf(err, "attribute %s", name)
		}
	}
	return nil
}

// writeAttr writes the scalar pointed to by ptr as an attribute of dset.
func writeAttr(dset *hdf5.Dataset, scalar *hdf5.Dataspace, name string, ptr interface{}) (err error) {
	dtype, err := hdf5.NewDatatypeFromValue(reflect.ValueOf(ptr).Elem().Interface())
	if err != nil {
		return err
	}
	defer checkClose(&err, dtype)

	attr, err := dset.CreateAttribute(name, dtype, scalar)
	if err != nil {
		return err
	}
	defer checkClose(&err, attr)

	return attr.Write(ptr, dtype)
}

// init creates the dataset in file.
func (d *Dataset) init(file *hdf5.File, conf *Config) (err error) {
	dtype, err := hdf5.NewDatatypeFromValue(d.Val)
	if err != nil {
		return err
	}
	defer checkClose(&err, dtype)

	udims := make([]uint, len(d.Dims)+1)
	udims[0] = uint(conf.Steps)
	for i, n := range d.Dims {
		udims[i+1] = uint(n)
	}

	d.fspace, err = hdf5.CreateSimpleDataspace(udims, nil)
	if err != nil {
		return err
	}

	start := make([]uint, len(udims))
	count := make([]uint, len(udims))
	copy(count, udims)
	count[0] = 1

	if err := d.fspace.SelectHyperslab(start, nil, count, nil); err != nil {
		checkClose(&err, d.fspace)
		return err
	}

	if len(d.Dims) == 0 {
		d.mspace, err = hdf5.CreateDataspace(hdf5.S_SCALAR)
	} else {
		d.mspace, err = hdf5.CreateSimpleDataspace(udims[1:], nil)
	}
	if err != nil {
		checkClose(&err, d.fspace)
		return err
	}

	d.dset, err = file.CreateDataset(d.Name, dtype, d.fspace)
	if err != nil {
		checkClose(&err, d.fspace)
		checkClose(&err, d.mspace)
	}

	return err
}

// Close closes the HDF5 dataset and Dataspaces.
func (d *Dataset) Close() error {
	if err := d.dset.Close(); err != nil {
		return err
	}
	if err := d.mspace.Close(); err != nil {
		return err
	}
	if err := d.fspace.Close(); err != nil {
		return err
	}
	return nil
}

// checkClose checks for errors in deferred calls.
func checkClose(err *error, c io.Closer) {
	if cerr := c.Close(); *err == nil {
		*err = cerr
	}
}
