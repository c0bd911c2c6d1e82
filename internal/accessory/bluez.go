package accessory

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/godbus/dbus/v5"
)

const (
	bluezService  = "org.bluez"
	adapterIface  = "org.bluez.Adapter1"
	deviceIface   = "org.bluez.Device1"
	managedObject = "org.freedesktop.DBus.ObjectManager.GetManagedObjects"
)

type managedObjects map[dbus.ObjectPath]map[string]map[string]dbus.Variant

type bluezLister struct {
	connect func() (*dbus.Conn, error)
}

// NewBluezLister lists connected devices known to BlueZ on the system bus.
func NewBluezLister() Lister {
	return &bluezLister{connect: func() (*dbus.Conn, error) {
		return dbus.ConnectSystemBus()
	}}
}

func (l *bluezLister) Available(ctx context.Context) bool {
	objects, err := l.objects(ctx)
	if err != nil {
		return false
	}
	for _, ifaces := range objects {
		if _, ok := ifaces[adapterIface]; ok {
			return true
		}
	}
	return false
}

// Connected returns one connected device name per line
func (l *bluezLister) Connected(ctx context.Context) (string, error) {
	objects, err := l.objects(ctx)
	if err != nil {
		return "", err
	}
	return strings.Join(connectedNames(objects), "\n"), nil
}

func (l *bluezLister) objects(ctx context.Context) (managedObjects, error) {
	conn, err := l.connect()
	if err != nil {
		return nil, fmt.Errorf("%w: system bus: %v", ErrUnavailable, err)
	}
	defer conn.Close()

	var managed managedObjects
	obj := conn.Object(bluezService, "/")
	if err := obj.CallWithContext(ctx, managedObject, 0).Store(&managed); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return managed, nil
}

// connectedNames returns the names of connected devices ordered by object path
func connectedNames(objects managedObjects) []string {
	paths := make([]string, 0, len(objects))
	for path := range objects {
		paths = append(paths, string(path))
	}
	sort.Strings(paths)

	var names []string
	for _, path := range paths {
		dev, ok := objects[dbus.ObjectPath(path)][deviceIface]
		if !ok {
			continue
		}
		connected, _ := variantBool(dev["Connected"])
		if !connected {
			continue
		}
		name, ok := variantString(dev["Alias"])
		if !ok || name == "" {
			name, _ = variantString(dev["Name"])
		}
		if name != "" {
			names = append(names, name)
		}
	}
	return names
}

func variantString(v dbus.Variant) (string, bool) {
	s, ok := v.Value().(string)
	return s, ok
}

func variantBool(v dbus.Variant) (bool, bool) {
	b, ok := v.Value().(bool)
	return b, ok
}
