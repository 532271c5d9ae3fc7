package hdf5

import (
	"github.com/pkg/errors"
	"gonum.org/v1/hdf5"
)

// A Loader sequentially loads the steps of a recorded "agents" dataset.
type Loader struct {
	i uint // index of current slice
	n uint // total number of slices

	data []Record // data buffer

	file   *hdf5.File
	dset   *hdf5.Dataset
	fspace *hdf5.Dataspace
	mspace *hdf5.Dataspace
}

// NewLoader opens a dataset in an HDF5 file and returns an initialized loader.
func NewLoader(filepath, dataset string) (*Loader, error) {
	l := new(Loader)
	var err error
	l.file, err = hdf5.OpenFile(filepath, hdf5.F_ACC_RDONLY)
	if err != nil {
		return nil, errors.Wrapf(err, "loader: open %s", filepath)
	}
	l.dset, err = l.file.OpenDataset(dataset)
	if err != nil {
		checkClose(&err, l.file)
		return nil, errors.Wrapf(err, "loader: open dataset %s", dataset)
	}
	l.fspace = l.dset.Space()
	dims, _, err := l.fspace.SimpleExtentDims()
	if err != nil {
		checkClose(&err, l.dset)
		checkClose(&err, l.file)
		return nil, err
	}
	if len(dims) != 2 {
		checkClose(&err, l.fspace)
		checkClose(&err, l.dset)
		checkClose(&err, l.file)
		return nil, errors.Errorf("loader: expected 2 dimensions, got %d", len(dims))
	}
	l.n = dims[0]

	l.mspace, err = hdf5.CreateSimpleDataspace(dims[1:], nil)
	if err != nil {
		checkClose(&err, l.fspace)
		checkClose(&err, l.dset)
		checkClose(&err, l.file)
		return nil, err
	}

	start := []uint{0, 0}
	count := []uint{1, dims[1]}
	if err := l.fspace.SelectHyperslab(start, nil, count, nil); err != nil {
		checkClose(&err, l.mspace)
		checkClose(&err, l.fspace)
		checkClose(&err, l.dset)
		checkClose(&err, l.file)
		return nil, err
	}

	l.data = make([]Record, dims[1])

	return l, nil
}

// Len returns the number of steps in the dataset.
func (l *Loader) Len() uint { return l.n }

// Seek makes step i the next one to be loaded.
func (l *Loader) Seek(i uint) { l.i = i % l.n }

// Load loads the next step available and cycles when everything has
// already been loaded. The returned slice is overwritten by the next call.
func (l *Loader) Load() ([]Record, error) {
	start := []uint{l.i, 0}
	if err := l.fspace.SetOffset(start); err != nil {
		return nil, err
	}
	l.i = (l.i + 1) % l.n

	if err := l.dset.ReadSubset(&l.data, l.mspace, l.fspace); err != nil {
		return nil, errors.Wrap(err, "loader")
	}
	return l.data, nil
}

// Close releases the HDF5 resources.
func (l *Loader) Close() (err error) {
	defer checkClose(&err, l.file)
	defer checkClose(&err, l.dset)
	defer checkClose(&err, l.fspace)
	return l.mspace.Close()
}
