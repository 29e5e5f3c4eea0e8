package umbra_test

import (
	"context"
	"fmt"

	"github.com/yacchi/umbra"
	"github.com/yacchi/umbra/format/json"
	"github.com/yacchi/umbra/source/bytes"
)

func ExampleStore() {
	store, err := umbra.New()
	if err != nil {
		panic(err)
	}

	l := store.AddLayer()
	store.SelectLayer(l.ID)
	_ = store.SetSelectedOffsetX(-4)
	_ = store.SetSelectedColor("red")
	store.SetShape(umbra.ShapeCircle)

	fmt.Print(store.Rule(".preview"))
	// Output:
	// .preview {
	//   box-shadow: 5px 5px 0px 0px #ff0000,10px 10px 0px 0px #00ff00,-4px 10px 20px 2px red;
	//   border-radius: 100%;
	//   width: 60px;
	//   height: 60px;
	//   background-color: #000000;
	// }
}

func ExampleStore_Import() {
	store, err := umbra.New()
	if err != nil {
		panic(err)
	}

	doc := `{
  "settings": {"shape": "square", "size": "30", "color": "#eee"},
  "list": [{"pk": 7, "hoff": 1, "voff": 1, "blur": 0, "spread": 0, "color": "#333"}]
}`
	report, err := store.Import(context.Background(), bytes.FromString(doc, bytes.WithName("shadow.json")))
	if err != nil {
		panic(err)
	}

	cur, _ := store.CurrentLayer()
	fmt.Println(report.Applied, cur.ID, store.NextID())
	fmt.Println(store.CSSDeclaration())
	// Output:
	// shadow.json 7 8
	// box-shadow: 1px 1px 0px 0px #333;border-radius: 0;width: 30px;height: 30px;background-color: #eee
}

func ExampleStore_Export() {
	store, err := umbra.New()
	if err != nil {
		panic(err)
	}

	blob, err := store.Export(json.NewCodec())
	if err != nil {
		panic(err)
	}
	fmt.Println(blob.Name, blob.MediaType)
	// Output:
	// umbra.json application/json
}
