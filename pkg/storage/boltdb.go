package storage

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"

	bolt "go.etcd.io/bbolt"

	"github.com/tracewire/tracewire/pkg/types"
)

var (
	// Bucket names
	bucketDevices      = []byte("devices")
	bucketCircuits     = []byte("circuits")
	bucketTerminations = []byte("terminations")
	bucketCables       = []byte("cables")
	bucketPaths        = []byte("paths")

	// bucketPathIndex maps "<cableID>/<pathID>" -> pathID so that every
	// CablePath containing a changed cable is found without scanning.
	bucketPathIndex = []byte("path_index")
)

// BoltStore implements Store interface using BoltDB
type BoltStore struct {
	db *bolt.DB
}

// NewBoltStore creates a new BoltDB-backed store
func NewBoltStore(dataDir string) (*BoltStore, error) {
	dbPath := filepath.Join(dataDir, "tracewire.db")

	db, err := bolt.Open(dbPath, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Create buckets
	err = db.Update(func(tx *bolt.Tx) error {
		buckets := [][]byte{
			bucketDevices,
			bucketCircuits,
			bucketTerminations,
			bucketCables,
			bucketPaths,
			bucketPathIndex,
		}

		for _, bucket := range buckets {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", bucket, err)
			}
		}
		return nil
	})

	if err != nil {
		db.Close()
		return nil, err
	}

	return &BoltStore{db: db}, nil
}

// Close closes the database
func (s *BoltStore) Close() error {
	return s.db.Close()
}

// Device operations

func (s *BoltStore) CreateDevice(device *types.Device) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketDevices)
		data, err := json.Marshal(device)
		if err != nil {
			return err
		}
		return b.Put([]byte(device.ID), data)
	})
}

func (s *BoltStore) GetDevice(id string) (*types.Device, error) {
	var device types.Device
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketDevices)
		data := b.Get([]byte(id))
		if data == nil {
			return fmt.Errorf("device not found: %s", id)
		}
		return json.Unmarshal(data, &device)
	})
	if err != nil {
		return nil, err
	}
	return &device, nil
}

func (s *BoltStore) GetDeviceByName(name string) (*types.Device, error) {
	var found *types.Device
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketDevices)
		return b.ForEach(func(k, v []byte) error {
			var device types.Device
			if err := json.Unmarshal(v, &device); err != nil {
				return err
			}
			if device.Name == name {
				found = &device
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	if found == nil {
		return nil, fmt.Errorf("device not found: %s", name)
	}
	return found, nil
}

func (s *BoltStore) ListDevices() ([]*types.Device, error) {
	var devices []*types.Device
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketDevices)
		return b.ForEach(func(k, v []byte) error {
			var device types.Device
			if err := json.Unmarshal(v, &device); err != nil {
				return err
			}
			devices = append(devices, &device)
			return nil
		})
	})
	return devices, err
}

func (s *BoltStore) DeleteDevice(id string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketDevices)
		return b.Delete([]byte(id))
	})
}

// Circuit operations

func (s *BoltStore) CreateCircuit(circuit *types.Circuit) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketCircuits)
		data, err := json.Marshal(circuit)
		if err != nil {
			return err
		}
		return b.Put([]byte(circuit.ID), data)
	})
}

func (s *BoltStore) GetCircuit(id string) (*types.Circuit, error) {
	var circuit types.Circuit
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketCircuits)
		data := b.Get([]byte(id))
		if data == nil {
			return fmt.Errorf("circuit not found: %s", id)
		}
		return json.Unmarshal(data, &circuit)
	})
	if err != nil {
		return nil, err
	}
	return &circuit, nil
}

func (s *BoltStore) ListCircuits() ([]*types.Circuit, error) {
	var circuits []*types.Circuit
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketCircuits)
		return b.ForEach(func(k, v []byte) error {
			var circuit types.Circuit
			if err := json.Unmarshal(v, &circuit); err != nil {
				return err
			}
			circuits = append(circuits, &circuit)
			return nil
		})
	})
	return circuits, err
}

func (s *BoltStore) DeleteCircuit(id string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketCircuits)
		return b.Delete([]byte(id))
	})
}

// Termination operations

func (s *BoltStore) CreateTermination(term *types.Termination) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return putTermination(tx, term)
	})
}

func (s *BoltStore) GetTermination(ref types.Ref) (*types.Termination, error) {
	var term *types.Termination
	err := s.db.View(func(tx *bolt.Tx) error {
		var err error
		term, err = getTermination(tx, ref)
		return err
	})
	if err != nil {
		return nil, err
	}
	return term, nil
}

func (s *BoltStore) GetTerminationByName(deviceID, name string) (*types.Termination, error) {
	var found *types.Termination
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketTerminations)
		return b.ForEach(func(k, v []byte) error {
			var term types.Termination
			if err := json.Unmarshal(v, &term); err != nil {
				return err
			}
			if term.DeviceID == deviceID && term.Name == name {
				found = &term
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	if found == nil {
		return nil, fmt.Errorf("%w: device %s port %q",
			types.ErrTerminationNotFound, deviceID, name)
	}
	return found, nil
}

func (s *BoltStore) ListTerminations() ([]*types.Termination, error) {
	var terms []*types.Termination
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketTerminations)
		return b.ForEach(func(k, v []byte) error {
			var term types.Termination
			if err := json.Unmarshal(v, &term); err != nil {
				return err
			}
			terms = append(terms, &term)
			return nil
		})
	})
	return terms, err
}

func (s *BoltStore) ListTerminationsByDevice(deviceID string) ([]*types.Termination, error) {
	terms, err := s.ListTerminations()
	if err != nil {
		return nil, err
	}

	var filtered []*types.Termination
	for _, term := range terms {
		if term.DeviceID == deviceID {
			filtered = append(filtered, term)
		}
	}
	return filtered, nil
}

func (s *BoltStore) GetFrontPort(rearPortID string, position int) (*types.Termination, error) {
	fronts, err := s.ListFrontPorts(rearPortID)
	if err != nil {
		return nil, err
	}
	for _, fp := range fronts {
		if fp.RearPortPosition == position {
			return fp, nil
		}
	}
	return nil, fmt.Errorf("%w: no front port at position %d of rear port %s",
		types.ErrTerminationNotFound, position, rearPortID)
}

func (s *BoltStore) ListFrontPorts(rearPortID string) ([]*types.Termination, error) {
	terms, err := s.ListTerminations()
	if err != nil {
		return nil, err
	}

	var fronts []*types.Termination
	for _, term := range terms {
		if term.Type == types.TypeFrontPort && term.RearPortID == rearPortID {
			fronts = append(fronts, term)
		}
	}
	return fronts, nil
}

func (s *BoltStore) GetCircuitTermination(circuitID string, side types.CircuitSide) (*types.Termination, error) {
	terms, err := s.ListTerminations()
	if err != nil {
		return nil, err
	}
	for _, term := range terms {
		if term.Type == types.TypeCircuitTermination &&
			term.CircuitID == circuitID && term.Side == side {
			return term, nil
		}
	}
	return nil, fmt.Errorf("%w: circuit %s side %s",
		types.ErrTerminationNotFound, circuitID, side)
}

// DeleteTermination removes an unconnected termination and any path still
// originating at it. Detach the cable first; deleting a cabled termination
// would orphan the cable's far end.
func (s *BoltStore) DeleteTermination(ref types.Ref) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		term, err := getTermination(tx, ref)
		if err != nil {
			return err
		}
		if term.CableID != "" {
			return fmt.Errorf("%w: %s holds cable %s",
				types.ErrTerminationOccupied, ref, term.CableID)
		}
		if term.PathID != "" {
			if path, err := getPath(tx, term.PathID); err == nil {
				removePathIndex(tx, path)
				if err := tx.Bucket(bucketPaths).Delete([]byte(path.ID)); err != nil {
					return err
				}
			}
		}
		return tx.Bucket(bucketTerminations).Delete([]byte(ref.ID))
	})
}

// Cable operations

// AttachCable persists a cable and sets the back-reference on both
// terminations in one transaction. The one-cable-per-termination constraint
// is enforced here: racing attachments to the same termination serialize on
// the write transaction and the loser fails with ErrTerminationOccupied.
func (s *BoltStore) AttachCable(cable *types.Cable) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		termA, err := getTermination(tx, cable.TerminationA)
		if err != nil {
			return err
		}
		termB, err := getTermination(tx, cable.TerminationB)
		if err != nil {
			return err
		}

		if termA.CableID != "" && termA.CableID != cable.ID {
			return fmt.Errorf("%w: %s is attached to cable %s",
				types.ErrTerminationOccupied, termA.Ref(), termA.CableID)
		}
		if termB.CableID != "" && termB.CableID != cable.ID {
			return fmt.Errorf("%w: %s is attached to cable %s",
				types.ErrTerminationOccupied, termB.Ref(), termB.CableID)
		}

		if err := putCable(tx, cable); err != nil {
			return err
		}

		termA.CableID = cable.ID
		termB.CableID = cable.ID
		if err := putTermination(tx, termA); err != nil {
			return err
		}
		return putTermination(tx, termB)
	})
}

func (s *BoltStore) GetCable(id string) (*types.Cable, error) {
	var cable *types.Cable
	err := s.db.View(func(tx *bolt.Tx) error {
		var err error
		cable, err = getCable(tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return cable, nil
}

func (s *BoltStore) ListCables() ([]*types.Cable, error) {
	var cables []*types.Cable
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketCables)
		return b.ForEach(func(k, v []byte) error {
			var cable types.Cable
			if err := json.Unmarshal(v, &cable); err != nil {
				return err
			}
			cables = append(cables, &cable)
			return nil
		})
	})
	return cables, err
}

// UpdateCable rewrites a cable's non-identity fields. The endpoint
// references of the stored cable must match; moving an end requires
// detaching and re-attaching.
func (s *BoltStore) UpdateCable(cable *types.Cable) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		existing, err := getCable(tx, cable.ID)
		if err != nil {
			return err
		}
		if existing.TerminationA != cable.TerminationA ||
			existing.TerminationB != cable.TerminationB {
			return fmt.Errorf("%w: cable %s", types.ErrImmutableTermination, cable.ID)
		}
		return putCable(tx, cable)
	})
}

// DetachCable deletes a cable and clears the back-reference on both
// terminations in one transaction. Returns the removed cable so the caller
// can recompute the paths that traversed it.
func (s *BoltStore) DetachCable(id string) (*types.Cable, error) {
	var cable *types.Cable
	err := s.db.Update(func(tx *bolt.Tx) error {
		var err error
		cable, err = getCable(tx, id)
		if err != nil {
			return err
		}

		for _, ref := range []types.Ref{cable.TerminationA, cable.TerminationB} {
			term, err := getTermination(tx, ref)
			if err != nil {
				// A missing termination is inconsistent data; detaching
				// the cable anyway repairs it.
				continue
			}
			if term.CableID == cable.ID {
				term.CableID = ""
				if err := putTermination(tx, term); err != nil {
					return err
				}
			}
		}

		return tx.Bucket(bucketCables).Delete([]byte(id))
	})
	if err != nil {
		return nil, err
	}
	return cable, nil
}

// Cable path operations

// ReplacePath upserts the path for its origin: the previous path record for
// that origin (if any) and its index entries are removed, the new record and
// index entries are written, and the origin termination's cached path
// pointer is updated, all in one transaction.
func (s *BoltStore) ReplacePath(path *types.CablePath) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		origin, err := getTermination(tx, path.Origin)
		if err != nil {
			return err
		}

		// Drop the superseded record and its index rows.
		if origin.PathID != "" && origin.PathID != path.ID {
			if old, err := getPath(tx, origin.PathID); err == nil {
				removePathIndex(tx, old)
				if err := tx.Bucket(bucketPaths).Delete([]byte(old.ID)); err != nil {
					return err
				}
			}
		}
		if old, err := getPath(tx, path.ID); err == nil {
			removePathIndex(tx, old)
		}

		data, err := json.Marshal(path)
		if err != nil {
			return err
		}
		if err := tx.Bucket(bucketPaths).Put([]byte(path.ID), data); err != nil {
			return err
		}
		if err := addPathIndex(tx, path); err != nil {
			return err
		}

		origin.PathID = path.ID
		return putTermination(tx, origin)
	})
}

func (s *BoltStore) GetPath(id string) (*types.CablePath, error) {
	var path *types.CablePath
	err := s.db.View(func(tx *bolt.Tx) error {
		var err error
		path, err = getPath(tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return path, nil
}

// GetPathByOrigin resolves a termination's path through its cached path
// pointer: one termination read plus one path read, never a re-trace.
func (s *BoltStore) GetPathByOrigin(origin types.Ref) (*types.CablePath, error) {
	var path *types.CablePath
	err := s.db.View(func(tx *bolt.Tx) error {
		term, err := getTermination(tx, origin)
		if err != nil {
			return err
		}
		if term.PathID == "" {
			return fmt.Errorf("%w: origin %s", types.ErrPathNotFound, origin)
		}
		path, err = getPath(tx, term.PathID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return path, nil
}

func (s *BoltStore) ListPaths() ([]*types.CablePath, error) {
	var paths []*types.CablePath
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketPaths)
		return b.ForEach(func(k, v []byte) error {
			var path types.CablePath
			if err := json.Unmarshal(v, &path); err != nil {
				return err
			}
			paths = append(paths, &path)
			return nil
		})
	})
	return paths, err
}

// ListPathsByCable returns every materialized path whose node list contains
// the given cable, via the path index bucket.
func (s *BoltStore) ListPathsByCable(cableID string) ([]*types.CablePath, error) {
	var paths []*types.CablePath
	err := s.db.View(func(tx *bolt.Tx) error {
		prefix := []byte(cableID + "/")
		c := tx.Bucket(bucketPathIndex).Cursor()
		for k, v := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, v = c.Next() {
			path, err := getPath(tx, string(v))
			if err != nil {
				// Stale index row; skip.
				continue
			}
			paths = append(paths, path)
		}
		return nil
	})
	return paths, err
}

func (s *BoltStore) DeletePathByOrigin(origin types.Ref) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		term, err := getTermination(tx, origin)
		if err != nil {
			return err
		}
		if term.PathID == "" {
			return nil
		}
		if path, err := getPath(tx, term.PathID); err == nil {
			removePathIndex(tx, path)
			if err := tx.Bucket(bucketPaths).Delete([]byte(path.ID)); err != nil {
				return err
			}
		}
		term.PathID = ""
		return putTermination(tx, term)
	})
}

// In-transaction helpers

func getTermination(tx *bolt.Tx, ref types.Ref) (*types.Termination, error) {
	data := tx.Bucket(bucketTerminations).Get([]byte(ref.ID))
	if data == nil {
		return nil, fmt.Errorf("%w: %s", types.ErrTerminationNotFound, ref)
	}
	var term types.Termination
	if err := json.Unmarshal(data, &term); err != nil {
		return nil, err
	}
	if ref.Type != "" && term.Type != ref.Type {
		return nil, fmt.Errorf("%w: %s has type %s", types.ErrTerminationNotFound, ref, term.Type)
	}
	return &term, nil
}

func putTermination(tx *bolt.Tx, term *types.Termination) error {
	data, err := json.Marshal(term)
	if err != nil {
		return err
	}
	return tx.Bucket(bucketTerminations).Put([]byte(term.ID), data)
}

func getCable(tx *bolt.Tx, id string) (*types.Cable, error) {
	data := tx.Bucket(bucketCables).Get([]byte(id))
	if data == nil {
		return nil, fmt.Errorf("%w: %s", types.ErrCableNotFound, id)
	}
	var cable types.Cable
	if err := json.Unmarshal(data, &cable); err != nil {
		return nil, err
	}
	return &cable, nil
}

func putCable(tx *bolt.Tx, cable *types.Cable) error {
	data, err := json.Marshal(cable)
	if err != nil {
		return err
	}
	return tx.Bucket(bucketCables).Put([]byte(cable.ID), data)
}

func getPath(tx *bolt.Tx, id string) (*types.CablePath, error) {
	data := tx.Bucket(bucketPaths).Get([]byte(id))
	if data == nil {
		return nil, fmt.Errorf("%w: %s", types.ErrPathNotFound, id)
	}
	var path types.CablePath
	if err := json.Unmarshal(data, &path); err != nil {
		return nil, err
	}
	return &path, nil
}

func addPathIndex(tx *bolt.Tx, path *types.CablePath) error {
	b := tx.Bucket(bucketPathIndex)
	for _, cableID := range path.CableIDs() {
		key := []byte(cableID + "/" + path.ID)
		if err := b.Put(key, []byte(path.ID)); err != nil {
			return err
		}
	}
	return nil
}

func removePathIndex(tx *bolt.Tx, path *types.CablePath) {
	b := tx.Bucket(bucketPathIndex)
	for _, cableID := range path.CableIDs() {
		// Delete on a missing key is a no-op.
		_ = b.Delete([]byte(cableID + "/" + path.ID))
	}
}
