package main

import (
	"errors"
	"fmt"

	"github.com/gobuffalo/packr"
	"github.com/gotk3/gotk3/glib"
	"github.com/gotk3/gotk3/gtk"
	log "github.com/sirupsen/logrus"
)

// Global variables for GTK and resources
var (
	Builder         *gtk.Builder
	StaticResources packr.Box
)

func init() {
	StaticResources = packr.NewBox("./resources")
}

func buildInterface() (*gtk.Application, error) {
	app, err := gtk.ApplicationNew("org.koru3d.punaed", glib.APPLICATION_FLAGS_NONE)
	if err != nil {
		return nil, err
	}

	app.Connect("startup", func() {
		log.Info("Application starting")
	})

	app.Connect("activate", func() {
		log.Info("Application activating")

		resource, err := StaticResources.FindString("punaed.glade")
		if err != nil {
			log.Fatal(err)
			panic(err)
		}

		builder, err := gtk.BuilderNew()
		if err != nil {
			log.Error(err)
			panic(err)
		}
		if err := builder.AddFromString(resource); err != nil {
			log.Error(err)
			panic(err)
		}

		Builder = builder

		obj, err := builder.GetObject("mainWindow")
		if err != nil {
			log.Error(err)
		}

		var (
			ok  bool
			win *gtk.Window
		)

		if win, ok = obj.(*gtk.Window); !ok {
			log.Error(errors.New("failed to cast Object from builder to Window"))
			return
		}

		win.SetDefaultSize(600, 480)

		if err := populateInventory(builder); err != nil {
			log.Error(err)
		}

		win.ShowAll()
		app.AddWindow(win)
	})

	app.Connect("shutdown", func() {
		log.Info("Application shutting down")
	})
	return app, nil
}

// populateInventory fills both inspector views from a fresh snapshot.
func populateInventory(builder *gtk.Builder) error {
	snap, err := takeSnapshot()
	if err != nil {
		return err
	}

	layersView, err := treeView(builder, "layersView")
	if err != nil {
		return err
	}
	devicesView, err := treeView(builder, "devicesView")
	if err != nil {
		return err
	}

	layersStore, err := gtk.ListStoreNew(glib.TYPE_STRING)
	if err != nil {
		return err
	}
	for _, layer := range snap.Layers {
		if err := layersStore.Set(layersStore.Append(), []int{0}, []interface{}{layer}); err != nil {
			return err
		}
	}
	if err := appendTextColumns(layersView, "Layer"); err != nil {
		return err
	}
	layersView.SetModel(layersStore)

	devicesStore, err := gtk.ListStoreNew(glib.TYPE_STRING, glib.TYPE_STRING, glib.TYPE_STRING, glib.TYPE_STRING)
	if err != nil {
		return err
	}
	for _, info := range snap.Devices {
		columns := []int{0, 1, 2, 3}
		values := []interface{}{
			info.Name,
			fmt.Sprintf("%#04x", info.VendorID),
			fmt.Sprint(info.DriverVersion),
			fmt.Sprintf("%d MiB", info.Memory/(1024*1024)),
		}
		if err := devicesStore.Set(devicesStore.Append(), columns, values); err != nil {
			return err
		}
	}
	if err := appendTextColumns(devicesView, "Device", "Vendor", "Driver", "Memory"); err != nil {
		return err
	}
	devicesView.SetModel(devicesStore)

	return nil
}

func treeView(builder *gtk.Builder, id string) (*gtk.TreeView, error) {
	obj, err := builder.GetObject(id)
	if err != nil {
		return nil, err
	}
	view, ok := obj.(*gtk.TreeView)
	if !ok {
		return nil, errors.New("failed to cast Object from builder to TreeView")
	}
	return view, nil
}

func appendTextColumns(view *gtk.TreeView, titles ...string) error {
	for idx, title := range titles {
		renderer, err := gtk.CellRendererTextNew()
		if err != nil {
			return err
		}
		column, err := gtk.TreeViewColumnNewWithAttribute(title, renderer, "text", idx)
		if err != nil {
			return err
		}
		view.AppendColumn(column)
	}
	return nil
}
